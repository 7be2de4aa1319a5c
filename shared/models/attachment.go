package models

import "io"

// Attachment is a finalized, already uploaded image reference.
type Attachment struct {
	S3Key     string `json:"s3_key"`
	PublicURL string `json:"public_url"`
	SortOrder int    `json:"sort_order"`
}

// UploadedImage is the response of the image upload endpoint.
type UploadedImage struct {
	S3Key     string `json:"s3_key"`
	PublicURL string `json:"public_url"`
}

// UploadFile is a prepared image ready to be sent to an uploader.
type UploadFile struct {
	FileName string
	MimeType string
	Body     io.Reader
}
