package models

import "time"

// File describes metadata for an uploaded blob. The bytes themselves live in
// the blob store under StoredFilename; the row and the blob are linked only
// by that key.
type File struct {
	ID string
	// UserID is the owner. Empty in anonymous deployments.
	UserID string
	// OriginalFilename is the user-supplied name, kept for download
	// responses only and never used to address the blob.
	OriginalFilename string
	// StoredFilename is the collision-free generated key of the blob.
	StoredFilename string
	FileSize       int64
	MimeType       string
	UploadDate     time.Time
	// DownloadToken is the sole public handle for anonymous retrieval.
	DownloadToken string
	DownloadCount int64
	// FileHash is the hex SHA-256 digest of the stored bytes at upload time.
	FileHash string
}
