// Package logo stores uploaded logos and resolves logo references into
// inline data URIs for the preview.
//
// A reference is empty (no logo), an s3://bucket/key object or a data: URI.
// Local file paths are only followed when the store allows them.
package logo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/invoice-studio/pkg/config"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/logger"
)

// MaxBytes is the largest logo accepted.
const MaxBytes = 5 * 1024 * 1024

const s3Scheme = "s3://"

// ObjectAPI is the part of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds a client from the default credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible services.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to load AWS config").
			Mark(ierr.ErrHTTPClient)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

type Store struct {
	client ObjectAPI
	cfg    config.S3Config
	log    *logger.Logger

	// AllowLocal lets Resolve read local file paths. Only set it for
	// trusted input such as a draft file given on the command line.
	AllowLocal bool
}

// New returns a store. client may be nil when S3 is disabled.
func New(client ObjectAPI, cfg config.S3Config, log *logger.Logger) *Store {
	return &Store{client: client, cfg: cfg, log: log.With("component", "logo")}
}

// ValidateRef accepts the references an untrusted caller may send: empty,
// data: URIs and s3:// objects.
func ValidateRef(ref string) error {
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, s3Scheme) {
		return nil
	}
	return ierr.NewError("logo reference is not a data: or s3:// reference").
		WithHint("Upload the logo as an image file").
		Mark(ierr.ErrValidation)
}

func (s *Store) s3Enabled() bool {
	return s.cfg.Enabled && s.client != nil
}

// Save validates an uploaded image and returns the reference to keep in
// the invoice header: an s3:// reference when S3 is enabled, otherwise the
// image inline as a data: URI.
func (s *Store) Save(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ierr.NewError("empty logo").
			WithHint("Choose an image file").
			Mark(ierr.ErrValidation)
	}
	if len(data) > MaxBytes {
		return "", ierr.NewErrorf("logo is %d bytes", len(data)).
			WithHintf("Logo must be under %d MB", MaxBytes/(1024*1024)).
			Mark(ierr.ErrValidation)
	}
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return "", ierr.NewError("logo is not an image").
			WithHint("Choose a PNG, JPEG, GIF or WebP image").
			Mark(ierr.ErrValidation)
	}

	if !s.s3Enabled() {
		return DataURI(kind.MIME.Value, data), nil
	}

	key := s.cfg.KeyPrefix + uuid.NewString() + "." + kind.Extension
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		s.log.Errorw("logo upload failed", "bucket", s.cfg.Bucket, "key", key, "error", err)
		return "", ierr.WithError(err).
			WithHint("Error uploading the logo").
			Mark(ierr.ErrHTTPClient)
	}
	s.log.Infow("logo uploaded", "bucket", s.cfg.Bucket, "key", key)
	return s3Scheme + s.cfg.Bucket + "/" + key, nil
}

// Resolve turns ref into a data: URI. An empty ref resolves to "".
func (s *Store) Resolve(ctx context.Context, ref string) (string, error) {
	switch {
	case ref == "":
		return "", nil
	case strings.HasPrefix(ref, "data:"):
		return ref, nil
	case strings.HasPrefix(ref, s3Scheme):
		data, err := s.fetch(ctx, ref)
		if err != nil {
			return "", err
		}
		return inline(data)
	default:
		if !s.AllowLocal {
			return "", ValidateRef(ref)
		}
		data, err := os.ReadFile(ref)
		if err != nil {
			return "", ierr.WithError(err).
				WithHintf("Logo file %s not found", ref).
				Mark(ierr.ErrNotFound)
		}
		return inline(data)
	}
}

func (s *Store) fetch(ctx context.Context, ref string) ([]byte, error) {
	if s.client == nil {
		return nil, ierr.NewErrorf("no S3 client for %s", ref).
			WithHint("S3 is not configured").
			Mark(ierr.ErrInvalidOperation)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, ierr.NewErrorf("malformed logo reference %q", ref).
			Mark(ierr.ErrValidation)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not load logo").
			Mark(ierr.ErrHTTPClient)
	}
	defer out.Body.Close()

	return io.ReadAll(io.LimitReader(out.Body, MaxBytes+1))
}

func inline(data []byte) (string, error) {
	if len(data) > MaxBytes {
		return "", ierr.NewError("logo too large").Mark(ierr.ErrValidation)
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return "", ierr.NewError("logo is not an image").Mark(ierr.ErrValidation)
	}
	return DataURI(kind.MIME.Value, data), nil
}

// DataURI encodes data as a base64 data: URI.
func DataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
