package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// UploadImage sends one image as multipart field "file" and returns its
// storage key and public URL.
func (c *Client) UploadImage(ctx context.Context, file models.UploadFile) (models.UploadedImage, error) {
	data, err := io.ReadAll(file.Body)
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to read image: %w", err)
	}

	contentType := file.MimeType
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	name := file.FileName
	if name == "" {
		name = "image.jpg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.uploadPath, &buf)
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out models.UploadedImage
	if err := c.send(req, &out, true); err != nil {
		return models.UploadedImage{}, err
	}
	if out.S3Key == "" {
		return models.UploadedImage{}, fmt.Errorf("upload response did not include a storage key")
	}
	return out, nil
}

// Upload lets the client act as an attachment uploader.
func (c *Client) Upload(ctx context.Context, file models.UploadFile) (models.UploadedImage, error) {
	return c.UploadImage(ctx, file)
}
