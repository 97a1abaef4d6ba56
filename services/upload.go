package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/Amar2502/portfolio-backend/config"
	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const DefaultUploadMaxBytes = 10 << 20

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// UploadedImage is what the editor needs to embed an uploaded image.
type UploadedImage struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int    `json:"size"`
}

// ImageUploader stores editor images in S3 under content addressed keys.
type ImageUploader struct {
	client     objectPutter
	bucket     string
	prefix     string
	publicBase string
	maxBytes   int64
	now        func() time.Time
}

// NewImageUploader returns nil, nil when S3_BUCKET is not set.
func NewImageUploader(ctx context.Context, cfg map[string]string) (*ImageUploader, error) {
	bucket := config.GetString(cfg, "S3_BUCKET", "")
	if bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewImageUploaderWithClient(
		s3.NewFromConfig(awsCfg),
		bucket,
		config.GetString(cfg, "S3_PREFIX", "blog-images"),
		config.GetString(cfg, "S3_PUBLIC_BASE_URL", ""),
		int64(config.GetInt(cfg, "UPLOAD_MAX_BYTES", DefaultUploadMaxBytes)),
	), nil
}

func NewImageUploaderWithClient(client objectPutter, bucket, prefix, publicBase string, maxBytes int64) *ImageUploader {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	return &ImageUploader{
		client:     client,
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

func (u *ImageUploader) MaxBytes() int64 {
	return u.maxBytes
}

// Upload checks data by its content rather than any declared type and stores it.
// The same bytes always map to the same key within a month.
func (u *ImageUploader) Upload(ctx context.Context, data []byte) (UploadedImage, error) {
	if len(data) == 0 {
		return UploadedImage{}, errs.NewMissingRequiredFieldError("file")
	}
	if int64(len(data)) > u.maxBytes {
		return UploadedImage{}, errs.NewMaxBodySizeExceededError(u.maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return UploadedImage{}, errs.NewUnsupportedMediaTypeError(mtype.String(), allowedImageTypes)
	}

	dims, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return UploadedImage{}, errs.NewMalformedPayloadError("image", err)
	}

	key := u.objectKey(data, mtype.Extension())
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(mtype.String()),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return UploadedImage{}, errs.NewServiceUnavailableError("storage", err)
	}

	return UploadedImage{
		URL:         u.publicBase + "/" + key,
		Key:         key,
		ContentType: mtype.String(),
		Width:       dims.Width,
		Height:      dims.Height,
		Size:        len(data),
	}, nil
}

func (u *ImageUploader) objectKey(data []byte, ext string) string {
	now := u.now().UTC()
	name := fmt.Sprintf("%04d/%02d/%016x%s", now.Year(), int(now.Month()), xxhash.Sum64(data), ext)
	if u.prefix == "" {
		return name
	}
	return u.prefix + "/" + name
}
