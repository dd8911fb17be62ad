// Package api exposes the Drive proxy and ranking HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/events"
	"github.com/NegroHm/uda-apuntes/internal/logging"
	"github.com/NegroHm/uda-apuntes/internal/metrics"
	"github.com/NegroHm/uda-apuntes/internal/ranking"
	"github.com/NegroHm/uda-apuntes/internal/snapshot"
)

// DriveClient is the Drive capability the proxy endpoints need.
type DriveClient interface {
	ListPage(ctx context.Context, folderID, pageToken string) (drive.Page, error)
	Search(ctx context.Context, folderID, term string) ([]drive.Entry, error)
	GetFile(ctx context.Context, fileID string) (drive.Entry, error)
}

// Ranker is the ranking capability the API needs.
type Ranker interface {
	Latest(ctx context.Context) (*ranking.Snapshot, error)
	Status() ranking.Status
	Trigger(ctx context.Context) bool
}

// Config holds API server configuration.
type Config struct {
	RootFolderID string
	RefreshToken string
}

// Server handles the public HTTP surface.
type Server struct {
	drive       DriveClient
	ranker      Ranker
	broadcaster *events.Broadcaster
	schedule    snapshot.Schedule
	cfg         Config
}

// NewServer creates the API server. broadcaster may be nil; the SSE
// endpoint then reports service unavailable.
func NewServer(dc DriveClient, ranker Ranker, broadcaster *events.Broadcaster, sched snapshot.Schedule, cfg Config) *Server {
	return &Server{
		drive:       dc,
		ranker:      ranker,
		broadcaster: broadcaster,
		schedule:    sched,
		cfg:         cfg,
	}
}

// Handler returns the routed handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/drive/files", s.handleListFiles)
	mux.HandleFunc("GET /api/drive/files/{folderID}", s.handleListFiles)
	mux.HandleFunc("GET /api/drive/search/{folderID}", s.handleSearch)
	mux.HandleFunc("GET /api/drive/file/{fileID}/metadata", s.handleFileMetadata)

	mux.HandleFunc("GET /api/ranking", s.handleRanking)
	mux.HandleFunc("GET /api/ranking/top", s.handleRankingTop)
	mux.HandleFunc("GET /api/ranking/status", s.handleRankingStatus)
	mux.HandleFunc("POST /api/ranking/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/ranking/events", s.handleEvents)

	return logging.Middleware(metrics.Middleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// fileItem is the proxy's view of a Drive entry.
type fileItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
	Size          int64  `json:"size,omitempty"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
	WebViewLink   string `json:"webViewLink,omitempty"`
	Description   string `json:"description,omitempty"`
	IsFolder      bool   `json:"isFolder"`
}

func toFileItems(entries []drive.Entry) []fileItem {
	items := make([]fileItem, len(entries))
	for i, e := range entries {
		items[i] = fileItem{
			ID:            e.ID,
			Name:          e.Name,
			MimeType:      e.MimeType,
			ModifiedTime:  e.ModifiedTime,
			Size:          e.Size,
			ThumbnailLink: e.ThumbnailLink,
			WebViewLink:   e.WebViewLink,
			Description:   e.Description,
			IsFolder:      e.IsFolder(),
		}
	}
	return items
}

// folderAllowed guards the proxy against probing arbitrary folders: only
// the configured root or plausible Drive IDs pass.
func (s *Server) folderAllowed(folderID string) bool {
	return folderID == s.cfg.RootFolderID || len(folderID) > 10
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := r.PathValue("folderID")
	if folderID == "" {
		folderID = s.cfg.RootFolderID
	}
	if !s.folderAllowed(folderID) {
		writeError(w, http.StatusForbidden, "Access denied", "Folder access not allowed")
		return
	}

	page, err := s.drive.ListPage(r.Context(), folderID, r.URL.Query().Get("pageToken"))
	if err != nil {
		s.writeDriveError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files":         toFileItems(page.Files),
		"nextPageToken": page.NextPageToken,
		"totalCount":    len(page.Files),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	folderID := r.PathValue("folderID")
	if !s.folderAllowed(folderID) {
		writeError(w, http.StatusForbidden, "Access denied", "Folder access not allowed")
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(term) < 2 {
		writeError(w, http.StatusBadRequest, "Invalid search", "Search term must be at least 2 characters")
		return
	}

	files, err := s.drive.Search(r.Context(), folderID, term)
	if err != nil {
		s.writeDriveError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files":      toFileItems(files),
		"searchTerm": term,
		"totalCount": len(files),
	})
}

func (s *Server) handleFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("fileID")
	entry, err := s.drive.GetFile(r.Context(), fileID)
	if err != nil {
		s.writeDriveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileItems([]drive.Entry{entry})[0])
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ranker.Latest(r.Context())
	if errors.Is(err, ranking.ErrNoSnapshot) {
		// First hit on a fresh deployment: start a pass and tell the
		// caller to come back.
		s.ranker.Trigger(context.WithoutCancel(r.Context()))
		writeError(w, http.StatusNotFound, "Ranking not available", "No ranking has been generated yet, generation started")
		return
	}
	if err != nil {
		logging.WithContext(r.Context()).Error("loading snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", "Could not load ranking")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRankingTop(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ranker.Latest(r.Context())
	if errors.Is(err, ranking.ErrNoSnapshot) {
		writeError(w, http.StatusNotFound, "Ranking not available", "No ranking has been generated yet")
		return
	}
	if err != nil {
		logging.WithContext(r.Context()).Error("loading snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", "Could not load ranking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lastUpdate":   snap.LastUpdate,
		"totalCareers": snap.TotalCareers,
		"topCareers":   snap.TopCareers,
	})
}

func (s *Server) handleRankingStatus(w http.ResponseWriter, r *http.Request) {
	st := s.ranker.Status()
	now := time.Now()

	var lastUpdate time.Time
	if st.LastUpdate != nil {
		lastUpdate = *st.LastUpdate
	}

	resp := map[string]any{
		"state":               st.State,
		"running":             st.Running,
		"stale":               s.schedule.IsStale(lastUpdate, now),
		"nextScheduledUpdate": s.schedule.NextRefresh(now),
	}
	if st.LastUpdate != nil {
		resp["lastUpdate"] = st.LastUpdate
	}
	if st.LastError != "" {
		resp["lastError"] = st.LastError
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.cfg.RefreshToken != "" {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.cfg.RefreshToken {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid refresh token")
			return
		}
	}

	started := s.ranker.Trigger(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"started": started,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster == nil {
		writeError(w, http.StatusServiceUnavailable, "Events unavailable", "Event stream is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Internal server error", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event := <-ch:
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// writeDriveError maps Drive client failures to the proxy's error
// contract.
func (s *Server) writeDriveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, drive.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied", "Google Drive denied access to this resource")
	case errors.Is(err, drive.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", "The requested resource does not exist")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		logging.WithContext(r.Context()).Error("drive proxy call failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", "Google Drive request failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, errMsg, detail string) {
	writeJSON(w, status, map[string]string{
		"error":   errMsg,
		"message": detail,
	})
}
