package drive

// FolderMimeType is the MIME type Google Drive assigns to folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Entry is an immutable snapshot of one Drive file or folder.
//
// Size arrives from the Drive API as a JSON string and is absent for
// folders and Google-native documents.
type Entry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
	Size          int64  `json:"size,string,omitempty"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
	WebViewLink   string `json:"webViewLink,omitempty"`
	Description   string `json:"description,omitempty"`
}

// IsFolder reports whether the entry is a folder.
func (e Entry) IsFolder() bool {
	return e.MimeType == FolderMimeType
}

// Page is one page of a folder listing.
type Page struct {
	Files         []Entry `json:"files"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}
