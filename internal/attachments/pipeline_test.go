package attachments

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

type fakeUploader struct {
	calls atomic.Int32
	fn    func(file models.UploadFile) (models.UploadedImage, error)
}

func (f *fakeUploader) Upload(_ context.Context, file models.UploadFile) (models.UploadedImage, error) {
	f.calls.Add(1)
	return f.fn(file)
}

func okUploader() *fakeUploader {
	return &fakeUploader{fn: func(file models.UploadFile) (models.UploadedImage, error) {
		return models.UploadedImage{S3Key: "k/" + file.FileName, PublicURL: "https://cdn/" + file.FileName}, nil
	}}
}

func fakeOpen(uri string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("bytes-of-" + uri)), nil
}

func newTestPipeline(u Uploader) *Pipeline {
	return NewPipeline(u, Config{Open: fakeOpen})
}

func TestAdd_UploadsAndBuildsPayload(t *testing.T) {
	p := newTestPipeline(okUploader())
	ctx := context.Background()

	_, err := p.Add(ctx, Asset{URI: "/pics/a.png", MimeType: "image/png"})
	require.NoError(t, err)
	_, err = p.Add(ctx, Asset{URI: "/pics/b.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	p.Wait()

	assert.True(t, p.CanSubmit())
	assert.Equal(t, []models.Attachment{
		{S3Key: "k/a.png", PublicURL: "https://cdn/a.png", SortOrder: 0},
		{S3Key: "k/b.jpg", PublicURL: "https://cdn/b.jpg", SortOrder: 1},
	}, p.ToPayload())
}

func TestAdd_LimitReached(t *testing.T) {
	u := okUploader()
	p := newTestPipeline(u)
	ctx := context.Background()

	for i := 0; i < DefaultMaxItems; i++ {
		_, err := p.Add(ctx, Asset{URI: "/pics/x.jpg", MimeType: "image/jpeg"})
		require.NoError(t, err)
	}
	_, err := p.Add(ctx, Asset{URI: "/pics/y.jpg", MimeType: "image/jpeg"})
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Equal(t, "You can attach up to 6 images.", err.Error())

	p.Wait()
	assert.Equal(t, DefaultMaxItems, p.Len())
	assert.Equal(t, int32(DefaultMaxItems), u.calls.Load())
}

func TestAdd_CustomLimit(t *testing.T) {
	p := NewPipeline(okUploader(), Config{Open: fakeOpen, MaxItems: 1})
	ctx := context.Background()

	_, err := p.Add(ctx, Asset{URI: "a.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	_, err = p.Add(ctx, Asset{URI: "b.jpg", MimeType: "image/jpeg"})
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Equal(t, "You can attach up to 1 images.", err.Error())
	p.Wait()
}

func TestFailedUpload_StaysAndBlocksSubmit(t *testing.T) {
	fail := true
	var mu sync.Mutex
	u := &fakeUploader{fn: func(file models.UploadFile) (models.UploadedImage, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return models.UploadedImage{}, errors.New("503")
		}
		return models.UploadedImage{S3Key: "k", PublicURL: "u"}, nil
	}}
	p := NewPipeline(u, Config{Open: fakeOpen, ErrorMessage: func(err error) string { return "upload failed: " + err.Error() }})
	ctx := context.Background()

	item, err := p.Add(ctx, Asset{URI: "a.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	p.Wait()

	got, ok := p.Get(item.ID)
	require.True(t, ok)
	assert.True(t, got.Failed())
	require.NotNil(t, got.UploadError)
	assert.Equal(t, "upload failed: 503", *got.UploadError)
	assert.False(t, p.CanSubmit())
	assert.Empty(t, p.ToPayload())

	mu.Lock()
	fail = false
	mu.Unlock()

	require.NoError(t, p.Retry(ctx, item.ID))
	p.Wait()

	got, _ = p.Get(item.ID)
	assert.False(t, got.Failed())
	assert.True(t, got.Uploaded())
	assert.True(t, p.CanSubmit())
	assert.Equal(t, int32(2), u.calls.Load())
}

func TestRetry_OnlyWhenFailed(t *testing.T) {
	p := newTestPipeline(okUploader())
	ctx := context.Background()

	item, err := p.Add(ctx, Asset{URI: "a.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	p.Wait()

	assert.ErrorIs(t, p.Retry(ctx, item.ID), ErrNotFailed)
	assert.ErrorIs(t, p.Retry(ctx, uuid.New()), ErrNotFound)
}

func TestStartUpload_InFlight(t *testing.T) {
	release := make(chan struct{})
	u := &fakeUploader{fn: func(file models.UploadFile) (models.UploadedImage, error) {
		<-release
		return models.UploadedImage{S3Key: "k"}, nil
	}}
	p := newTestPipeline(u)
	ctx := context.Background()

	item, err := p.Add(ctx, Asset{URI: "a.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	assert.True(t, item.Uploading)
	assert.False(t, p.CanSubmit())

	assert.ErrorIs(t, p.StartUpload(ctx, item.ID), ErrUploadInFlight)

	close(release)
	p.Wait()
	assert.True(t, p.CanSubmit())
	assert.Equal(t, int32(1), u.calls.Load())
}

func TestRemove_OrphansInFlightUpload(t *testing.T) {
	release := make(chan struct{})
	u := &fakeUploader{fn: func(file models.UploadFile) (models.UploadedImage, error) {
		if file.FileName == "slow.jpg" {
			<-release
		}
		return models.UploadedImage{S3Key: "k/" + file.FileName, PublicURL: "u/" + file.FileName}, nil
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	p := NewPipeline(u, Config{Open: fakeOpen, Metrics: metrics})
	ctx := context.Background()

	slow, err := p.Add(ctx, Asset{URI: "slow.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	_, err = p.Add(ctx, Asset{URI: "fast.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)

	assert.True(t, p.Remove(slow.ID))
	assert.False(t, p.Remove(slow.ID))

	close(release)
	p.Wait()

	items := p.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "fast.jpg", items[0].FileName)
	assert.Equal(t, []models.Attachment{{S3Key: "k/fast.jpg", PublicURL: "u/fast.jpg", SortOrder: 0}}, p.ToPayload())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.uploadsTotal.WithLabelValues("orphaned")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.uploadsTotal.WithLabelValues("success")))
}

func TestRemoveFailed_AllowsSubmitWithRest(t *testing.T) {
	u := &fakeUploader{fn: func(file models.UploadFile) (models.UploadedImage, error) {
		if file.FileName == "bad.jpg" {
			return models.UploadedImage{}, errors.New("boom")
		}
		return models.UploadedImage{S3Key: "k/" + file.FileName}, nil
	}}
	p := newTestPipeline(u)
	ctx := context.Background()

	_, err := p.Add(ctx, Asset{URI: "one.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	bad, err := p.Add(ctx, Asset{URI: "bad.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	_, err = p.Add(ctx, Asset{URI: "three.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	p.Wait()

	assert.False(t, p.CanSubmit())
	p.Remove(bad.ID)
	assert.True(t, p.CanSubmit())

	payload := p.ToPayload()
	require.Len(t, payload, 2)
	assert.Equal(t, "k/one.jpg", payload[0].S3Key)
	assert.Equal(t, 0, payload[0].SortOrder)
	assert.Equal(t, "k/three.jpg", payload[1].S3Key)
	assert.Equal(t, 1, payload[1].SortOrder)
}

func TestCanSubmit_Empty(t *testing.T) {
	p := newTestPipeline(okUploader())
	assert.True(t, p.CanSubmit())
	assert.Empty(t, p.ToPayload())
}

type upperProcessor struct{}

func (upperProcessor) Process(data []byte) ([]byte, string, error) {
	return []byte(strings.ToUpper(string(data))), "image/jpeg", nil
}

func TestProcessorApplied(t *testing.T) {
	var body string
	var mime string
	u := &fakeUploader{fn: func(file models.UploadFile) (models.UploadedImage, error) {
		b, _ := io.ReadAll(file.Body)
		body, mime = string(b), file.MimeType
		return models.UploadedImage{S3Key: "k"}, nil
	}}
	p := NewPipeline(u, Config{Open: fakeOpen, Processor: upperProcessor{}})

	_, err := p.Add(context.Background(), Asset{URI: "a.png", MimeType: "image/png"})
	require.NoError(t, err)
	p.Wait()

	assert.Equal(t, "BYTES-OF-A.PNG", body)
	assert.Equal(t, "image/jpeg", mime)
}

func TestOpenFailure_MarksFailed(t *testing.T) {
	p := NewPipeline(okUploader(), Config{Open: func(string) (io.ReadCloser, error) {
		return nil, errors.New("gone")
	}})

	item, err := p.Add(context.Background(), Asset{URI: "a.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)
	p.Wait()

	got, _ := p.Get(item.ID)
	require.NotNil(t, got.UploadError)
	assert.Equal(t, MessageUploadFailed, *got.UploadError)
}
