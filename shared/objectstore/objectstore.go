// Package objectstore uploads attachment images straight to Cloudflare R2
// (S3-compatible) when the backend upload endpoint is not used.
package objectstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

const keyPrefix = "service-requests/attachments"

// putter is the subset of the S3 API used here.
type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads objects into a single bucket.
type Client struct {
	s3            putter
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// Options configures NewClient.
type Options struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicBaseURL is the bucket's public domain. When empty the R2 API
	// endpoint URL is used.
	PublicBaseURL string
}

// NewClient creates an R2 client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.AccountID == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("R2 credentials not configured")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("R2 bucket not configured")
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	publicBase := opts.PublicBaseURL
	if publicBase == "" {
		publicBase = endpoint + "/" + opts.Bucket
	}

	return newClient(s3Client, opts.Bucket, publicBase), nil
}

func newClient(p putter, bucket, publicBaseURL string) *Client {
	return &Client{
		s3:            p,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Upload stores the file under a unique key and returns its key and public URL.
func (c *Client) Upload(ctx context.Context, file models.UploadFile) (models.UploadedImage, error) {
	key := c.objectKey(file.FileName)

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(file.MimeType),
	})
	if err != nil {
		return models.UploadedImage{}, fmt.Errorf("failed to upload to R2: %w", err)
	}

	return models.UploadedImage{
		S3Key:     key,
		PublicURL: c.PublicURL(key),
	}, nil
}

// PublicURL returns the public URL for an object key.
func (c *Client) PublicURL(key string) string {
	return c.publicBaseURL + "/" + key
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) objectKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	day := c.now().UTC().Format("2006/01/02")
	return fmt.Sprintf("%s/%s/%s%s", keyPrefix, day, uuid.NewString(), ext)
}
