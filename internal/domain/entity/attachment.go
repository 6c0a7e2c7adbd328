package entity

import "time"

// MaxAttachmentSize is the per-file upload limit (10 MiB), enforced at
// submission time.
const MaxAttachmentSize = 10 << 20

// Attachment represents one uploaded supporting file tied to a claim.
// Immutable once stored; deletable only by an admin. Rows cascade with
// their claim.
type Attachment struct {
	ID         int64     `json:"id"`
	ClaimID    int64     `json:"claim_id"`
	FileName   string    `json:"file_name"`
	StorageURL string    `json:"storage_url"`
	MimeType   string    `json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadFile represents file content handed to claim submission before it is
// stored.
type UploadFile struct {
	Name     string
	MimeType string
	Content  []byte
}
