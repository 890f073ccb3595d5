package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/surerank/core/internal/config"
)

// S3Uploader pushes files to an S3-compatible bucket. It is used by the
// nightly backup upload job.
type S3Uploader struct {
	client *s3.Client
	cfg    config.S3RuntimeConfig
}

func NewS3Uploader(cfg config.S3RuntimeConfig) *S3Uploader {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyleAccess,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &S3Uploader{client: s3.New(opts), cfg: cfg}
}

// Upload stores body under a key derived from the configured path template
// and returns the public URL of the object.
func (u *S3Uploader) Upload(ctx context.Context, filename string, body []byte, contentType string) (string, error) {
	key := u.objectKey(filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %q: %w", key, err)
	}

	return u.publicURL(key), nil
}

// objectKey expands the path template. Supported placeholders are {Y}, {m},
// {d} and {filename}.
func (u *S3Uploader) objectKey(filename string) string {
	tpl := u.cfg.PathTemplate
	if tpl == "" {
		tpl = "{Y}/{m}/{filename}"
	}

	now := time.Now()
	r := strings.NewReplacer(
		"{Y}", now.Format("2006"),
		"{m}", now.Format("01"),
		"{d}", now.Format("02"),
		"{filename}", filename,
	)
	return strings.TrimPrefix(path.Clean(r.Replace(tpl)), "/")
}

func (u *S3Uploader) publicURL(key string) string {
	if u.cfg.CustomDomain != "" {
		return strings.TrimSuffix(u.cfg.CustomDomain, "/") + "/" + key
	}
	if u.cfg.Endpoint != "" {
		base := strings.TrimSuffix(u.cfg.Endpoint, "/")
		if u.cfg.PathStyleAccess {
			return fmt.Sprintf("%s/%s/%s", base, u.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", base, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}
