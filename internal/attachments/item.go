// Package attachments drives independent image uploads to completion before a
// service request is submitted.
package attachments

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Asset is a locally picked image.
type Asset struct {
	URI      string
	FileName string
	MimeType string
}

// Item is one attachment in the collection. An item is in exactly one of
// three states: uploading, failed (UploadError set) or uploaded (S3Key set).
type Item struct {
	ID          uuid.UUID
	LocalURI    string
	FileName    string
	MimeType    string
	Uploading   bool
	UploadError *string
	S3Key       *string
	PublicURL   *string
}

// Failed reports whether the last upload attempt failed.
func (i Item) Failed() bool {
	return !i.Uploading && i.UploadError != nil
}

// Uploaded reports whether the item has a storage key.
func (i Item) Uploaded() bool {
	return i.S3Key != nil
}

func (i Item) clone() Item {
	out := i
	out.UploadError = copyString(i.UploadError)
	out.S3Key = copyString(i.S3Key)
	out.PublicURL = copyString(i.PublicURL)
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// deriveFileInfo fills in the file name and mime type of a picked asset.
// sniffed is the mime type detected from the file content, if any.
func deriveFileInfo(a Asset, sniffed string) (fileName, mimeType string) {
	fileName = a.FileName
	if fileName == "" {
		fileName = path.Base(strings.ReplaceAll(a.URI, "\\", "/"))
		if fileName == "." || fileName == "/" {
			fileName = ""
		}
	}

	mimeType = a.MimeType
	if mimeType == "" {
		mimeType = sniffed
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		ext = extFromMime(mimeType)
		if fileName == "" {
			fileName = "image"
		}
		fileName += "." + ext
	}

	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/" + mimeSubtype(ext)
	}
	return fileName, mimeType
}

func extFromMime(mimeType string) string {
	sub, ok := strings.CutPrefix(mimeType, "image/")
	if !ok || sub == "" {
		return "jpg"
	}
	if i := strings.IndexByte(sub, ';'); i >= 0 {
		sub = sub[:i]
	}
	if sub == "jpeg" {
		return "jpg"
	}
	return sub
}

func mimeSubtype(ext string) string {
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}
