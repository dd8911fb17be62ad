package ranking

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NegroHm/uda-apuntes/internal/drive"
	"github.com/NegroHm/uda-apuntes/internal/logging"
	"github.com/NegroHm/uda-apuntes/internal/metrics"
)

// DefaultMaxDepth bounds recursion; Drive folder trees do not cycle, but an
// externally-modified structure is not fully trusted input.
const DefaultMaxDepth = 1000

// Walker enumerates every file in a folder's subtree.
type Walker struct {
	lister      drive.Lister
	maxDepth    int
	concurrency int
}

// NewWalker creates a walker. concurrency bounds how many sibling subtrees
// are listed in parallel.
func NewWalker(lister drive.Lister, maxDepth, concurrency int) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Walker{lister: lister, maxDepth: maxDepth, concurrency: concurrency}
}

// Walk lists folderID depth-first and calls visit for every file (never for
// folders) in the subtree. Direct files of a folder are visited before its
// subfolders are descended into. A subfolder whose listing fails is logged
// and skipped; siblings keep going. Only a failure to list the root folder
// itself is returned as an error.
//
// visit must be safe for concurrent use.
//
// The returned count is the number of subfolders visited below the root.
func (w *Walker) Walk(ctx context.Context, folderID, path string, visit func(drive.Entry)) (int, error) {
	entries, err := w.lister.List(ctx, folderID)
	if err != nil {
		return 0, err
	}

	var folders atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)

	w.processFolder(ctx, g, entries, path, 0, visit, &folders)
	g.Wait()

	return int(folders.Load()), nil
}

// processFolder visits the direct files of an already-listed folder and
// schedules its subfolders.
func (w *Walker) processFolder(ctx context.Context, g *errgroup.Group, entries []drive.Entry, path string, depth int, visit func(drive.Entry), folders *atomic.Int64) {
	files := 0
	subfolders := 0
	for _, e := range entries {
		if e.IsFolder() {
			subfolders++
			continue
		}
		files++
		visit(e)
	}

	logging.Debug("folder visited",
		zap.String("path", path),
		zap.Int("files", files),
		zap.Int("subfolders", subfolders))
	metrics.RecordFolderVisited(files)

	for _, e := range entries {
		if !e.IsFolder() {
			continue
		}
		folders.Add(1)
		childID, childPath := e.ID, path+"/"+e.Name
		// TryGo falls back to walking in the current goroutine so that
		// recursive scheduling cannot exhaust the group's slots and deadlock.
		if !g.TryGo(func() error {
			w.walkSubfolder(ctx, g, childID, childPath, depth+1, visit, folders)
			return nil
		}) {
			w.walkSubfolder(ctx, g, childID, childPath, depth+1, visit, folders)
		}
	}
}

func (w *Walker) walkSubfolder(ctx context.Context, g *errgroup.Group, folderID, path string, depth int, visit func(drive.Entry), folders *atomic.Int64) {
	if ctx.Err() != nil {
		return
	}
	if depth > w.maxDepth {
		logging.Error("max folder depth exceeded, skipping subtree",
			zap.String("path", path),
			zap.Int("depth", depth))
		metrics.RecordFolderError()
		return
	}

	entries, err := w.lister.List(ctx, folderID)
	if err != nil {
		// Best effort: one inaccessible subfolder contributes nothing but
		// must not invalidate its siblings.
		logging.Warn("skipping folder after listing failure",
			zap.String("path", path),
			zap.Error(err))
		metrics.RecordFolderError()
		return
	}

	w.processFolder(ctx, g, entries, path, depth, visit, folders)
}
