package domain

import "time"

// FilePurpose says why a file was uploaded.
type FilePurpose string

const (
	PurposeDelivery FilePurpose = "delivery"
	PurposeKYC      FilePurpose = "kyc"
)

// Attachment is decoded upload content on its way to the blob store.
type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// FileMetadata points at content held in the blob store.
type FileMetadata struct {
	ID          int64
	EscrowID    *int64 // nil for KYC documents
	UserID      int64
	FileName    string
	Purpose     FilePurpose
	StorageKey  string
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
}
