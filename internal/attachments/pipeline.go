package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// DefaultMaxItems is the attachment limit per service request.
const DefaultMaxItems = 6

// MessageUploadFailed is stored on an item when no better message is available.
const MessageUploadFailed = "Could not upload the image. Tap retry to try again."

var (
	ErrLimitReached   = fmt.Errorf("You can attach up to %d images.", DefaultMaxItems)
	ErrNotFound       = errors.New("attachment not found")
	ErrUploadInFlight = errors.New("attachment upload already in progress")
	ErrNotFailed      = errors.New("attachment is not in a failed state")
)

// Uploader stores one prepared image and returns its key and public URL.
type Uploader interface {
	Upload(ctx context.Context, file models.UploadFile) (models.UploadedImage, error)
}

// Processor optionally transforms image bytes before upload.
type Processor interface {
	Process(data []byte) ([]byte, string, error)
}

// Opener opens a local image by URI.
type Opener func(uri string) (io.ReadCloser, error)

func openFile(uri string) (io.ReadCloser, error) {
	return os.Open(uri)
}

// Config holds Pipeline settings.
type Config struct {
	MaxItems     int
	Processor    Processor
	Open         Opener
	ErrorMessage func(error) string
	Logger       *zap.SugaredLogger
	Metrics      *Metrics
}

// Pipeline owns the attachment collection of one request form. All methods
// are safe for concurrent use; uploads run on their own goroutines.
type Pipeline struct {
	uploader Uploader
	cfg      Config

	mu    sync.Mutex
	items []*Item
	wg    sync.WaitGroup
}

// NewPipeline creates an empty pipeline.
func NewPipeline(uploader Uploader, cfg Config) *Pipeline {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.Open == nil {
		cfg.Open = openFile
	}
	if cfg.ErrorMessage == nil {
		cfg.ErrorMessage = func(error) string { return MessageUploadFailed }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &Pipeline{uploader: uploader, cfg: cfg}
}

// limitError keeps ErrLimitReached matchable while reporting the configured
// maximum.
func (p *Pipeline) limitError() error {
	if p.cfg.MaxItems == DefaultMaxItems {
		return ErrLimitReached
	}
	return limitReached{max: p.cfg.MaxItems}
}

type limitReached struct{ max int }

func (l limitReached) Error() string {
	return fmt.Sprintf("You can attach up to %d images.", l.max)
}

func (l limitReached) Is(target error) bool {
	return target == ErrLimitReached
}

// Add inserts a picked image and starts uploading it. The collection is left
// untouched when it is already full.
func (p *Pipeline) Add(ctx context.Context, asset Asset) (Item, error) {
	p.mu.Lock()
	if len(p.items) >= p.cfg.MaxItems {
		p.mu.Unlock()
		return Item{}, p.limitError()
	}
	p.mu.Unlock()

	sniffed := ""
	if asset.MimeType == "" && asset.URI != "" {
		if m, err := mimetype.DetectFile(asset.URI); err == nil {
			sniffed = m.String()
		}
	}
	fileName, mimeType := deriveFileInfo(asset, sniffed)

	item := &Item{
		ID:        uuid.New(),
		LocalURI:  asset.URI,
		FileName:  fileName,
		MimeType:  mimeType,
		Uploading: true,
	}

	p.mu.Lock()
	// Re-check: another Add may have filled the slot while sniffing.
	if len(p.items) >= p.cfg.MaxItems {
		p.mu.Unlock()
		return Item{}, p.limitError()
	}
	p.items = append(p.items, item)
	snapshot := item.clone()
	p.mu.Unlock()

	p.launch(ctx, snapshot)
	return snapshot, nil
}

// StartUpload (re)starts the upload of an item.
func (p *Pipeline) StartUpload(ctx context.Context, id uuid.UUID) error {
	p.mu.Lock()
	item := p.find(id)
	if item == nil {
		p.mu.Unlock()
		return ErrNotFound
	}
	if item.Uploading {
		p.mu.Unlock()
		return ErrUploadInFlight
	}
	item.Uploading = true
	item.UploadError = nil
	snapshot := item.clone()
	p.mu.Unlock()

	p.launch(ctx, snapshot)
	return nil
}

// Retry restarts a failed upload. Retries are never automatic.
func (p *Pipeline) Retry(ctx context.Context, id uuid.UUID) error {
	p.mu.Lock()
	item := p.find(id)
	if item == nil {
		p.mu.Unlock()
		return ErrNotFound
	}
	failed := item.Failed()
	p.mu.Unlock()

	if !failed {
		return ErrNotFailed
	}
	return p.StartUpload(ctx, id)
}

// Remove deletes an item regardless of its state. A pending upload for it
// keeps running and its result is dropped.
func (p *Pipeline) Remove(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, it := range p.items {
		if it.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// CanSubmit reports whether no item is uploading or failed.
func (p *Pipeline) CanSubmit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, it := range p.items {
		if it.Uploading || it.UploadError != nil {
			return false
		}
	}
	return true
}

// ToPayload returns the uploaded items in collection order.
func (p *Pipeline) ToPayload() []models.Attachment {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.Attachment, 0, len(p.items))
	for _, it := range p.items {
		if it.S3Key == nil {
			continue
		}
		a := models.Attachment{S3Key: *it.S3Key, SortOrder: len(out)}
		if it.PublicURL != nil {
			a.PublicURL = *it.PublicURL
		}
		out = append(out, a)
	}
	return out
}

// Items returns a snapshot of the collection.
func (p *Pipeline) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Item, len(p.items))
	for i, it := range p.items {
		out[i] = it.clone()
	}
	return out
}

// Get returns a snapshot of one item.
func (p *Pipeline) Get(id uuid.UUID) (Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if it := p.find(id); it != nil {
		return it.clone(), true
	}
	return Item{}, false
}

// Len returns the number of items.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Wait blocks until every started upload has settled.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) find(id uuid.UUID) *Item {
	for _, it := range p.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (p *Pipeline) launch(ctx context.Context, item Item) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		started := time.Now()
		uploaded, err := p.upload(ctx, item)
		p.finish(item.ID, uploaded, err, started)
	}()
}

func (p *Pipeline) upload(ctx context.Context, item Item) (models.UploadedImage, error) {
	rc, err := p.cfg.Open(item.LocalURI)
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to open %s: %w", item.LocalURI, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to read %s: %w", item.LocalURI, err)
	}

	mimeType := item.MimeType
	if p.cfg.Processor != nil {
		processed, processedMime, err := p.cfg.Processor.Process(data)
		if err == nil {
			data, mimeType = processed, processedMime
		} else {
			// Original bytes are uploaded as is.
			p.cfg.Logger.Debugw("image processing skipped", "file", item.FileName, "error", err)
		}
	}

	return p.uploader.Upload(ctx, models.UploadFile{
		FileName: item.FileName,
		MimeType: mimeType,
		Body:     bytes.NewReader(data),
	})
}

func (p *Pipeline) finish(id uuid.UUID, uploaded models.UploadedImage, uploadErr error, started time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	item := p.find(id)
	if item == nil {
		p.cfg.Metrics.observe("orphaned", started)
		p.cfg.Logger.Debugw("discarding result for removed attachment", "id", id)
		return
	}

	item.Uploading = false
	if uploadErr != nil {
		msg := p.cfg.ErrorMessage(uploadErr)
		item.UploadError = &msg
		p.cfg.Metrics.observe("failure", started)
		p.cfg.Logger.Warnw("attachment upload failed", "id", id, "file", item.FileName, "error", uploadErr)
		return
	}

	key, url := uploaded.S3Key, uploaded.PublicURL
	item.UploadError = nil
	item.S3Key = &key
	item.PublicURL = &url
	p.cfg.Metrics.observe("success", started)
	p.cfg.Logger.Infow("attachment uploaded", "id", id, "file", item.FileName, "s3_key", key)
}
