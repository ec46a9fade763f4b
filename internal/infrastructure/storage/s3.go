package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

const (
	// MaxBannerSize is the largest accepted banner upload.
	MaxBannerSize = 2 << 20
	deleteBatch   = 1000
)

var allowedImages = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Config holds the S3 (or S3 compatible) bucket settings. PublicBaseURL is
// the CDN or bucket URL objects are served from.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// S3Storage keeps blog banners in a bucket.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
	log     zerolog.Logger
}

func NewS3Storage(ctx context.Context, cfg Config, log zerolog.Logger) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
		log:     log,
	}, nil
}

func publicBaseURL(cfg Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// inspected is the checked content of an upload.
type inspected struct {
	data        []byte
	contentType string
	ext         string
	width       int
	height      int
}

// inspect reads the upload, checks its size and sniffs its real type. The
// client supplied content type is ignored.
func inspect(file ports.Upload) (*inspected, error) {
	if file.Body == nil {
		return nil, bannerError("banner image is required")
	}
	data, err := io.ReadAll(io.LimitReader(file.Body, MaxBannerSize+1))
	if err != nil {
		return nil, fmt.Errorf("read banner: %w", err)
	}
	if len(data) == 0 {
		return nil, bannerError("banner image is required")
	}
	if len(data) > MaxBannerSize {
		return nil, bannerError("banner image must be at most 2MB")
	}

	mt := mimetype.Detect(data)
	ext, ok := allowedImages[mt.String()]
	if !ok {
		return nil, bannerError("banner image must be a png, jpeg, gif or webp file")
	}

	out := &inspected{data: data, contentType: mt.String(), ext: ext}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		out.width, out.height = cfg.Width, cfg.Height
	}
	return out, nil
}

func bannerError(msg string) error {
	return domain.NewValidationError("Invalid request", map[string]string{"banner_image": msg})
}

func (s *S3Storage) Upload(ctx context.Context, folder string, file ports.Upload) (domain.Banner, error) {
	img, err := inspect(file)
	if err != nil {
		return domain.Banner{}, err
	}

	key := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), img.ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.data),
		ContentType:   aws.String(img.contentType),
		ContentLength: aws.Int64(int64(len(img.data))),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return domain.Banner{}, fmt.Errorf("put object %s: %w", key, err)
	}

	s.log.Debug().Str("key", key).Int("bytes", len(img.data)).Msg("banner uploaded")
	return domain.Banner{
		PublicID: key,
		URL:      s.baseURL + "/" + key,
		Width:    img.width,
		Height:   img.height,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}

// DeleteMany removes objects in batches of the API maximum.
func (s *S3Storage) DeleteMany(ctx context.Context, publicIDs []string) error {
	for start := 0; start < len(publicIDs); start += deleteBatch {
		end := min(start+deleteBatch, len(publicIDs))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, id := range publicIDs[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(id)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("delete objects: %d failed, first %s: %s", len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}
