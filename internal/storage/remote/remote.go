// Package remote reads and writes table files at export/import locations:
// local paths, file:// URLs, http(s):// URLs (read only) and s3://bucket/key.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/multierr"
)

// S3Config holds credentials and endpoint overrides for s3:// locations.
// Empty fields fall back to the default AWS configuration chain.
type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string // S3-compatible endpoint, addressed path-style
}

// Scheme is the kind of a location
type Scheme string

const (
	SchemeLocal Scheme = "local" // plain path or file:// URL
	SchemeHTTP  Scheme = "http"  // http:// or https://
	SchemeS3    Scheme = "s3"
)

// ErrReadOnly is returned by Put for locations that cannot be written
var ErrReadOnly = errors.New("location is read-only")

// HTTPTimeout bounds a whole HTTP download
var HTTPTimeout = 5 * time.Minute

// Location is a parsed export or import target
type Location struct {
	Scheme Scheme
	Path   string // file path for SchemeLocal, full URL for SchemeHTTP
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Scheme == SchemeS3 {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// ParseLocation classifies raw by its prefix (case-insensitive)
func ParseLocation(raw string) (Location, error) {
	lower := strings.ToLower(raw)
	switch {
	case raw == "":
		return Location{}, fmt.Errorf("empty location")

	case strings.HasPrefix(lower, "s3://"):
		bucket, key, ok := strings.Cut(raw[len("s3://"):], "/")
		if !ok || bucket == "" || key == "" {
			return Location{}, fmt.Errorf("invalid S3 location %q: want s3://bucket/key", raw)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Key: key}, nil

	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Location{Scheme: SchemeHTTP, Path: raw}, nil

	case strings.HasPrefix(lower, "file://"):
		path := raw[len("file://"):]
		if path == "" {
			return Location{}, fmt.Errorf("invalid file location %q: no path", raw)
		}
		return Location{Scheme: SchemeLocal, Path: path}, nil

	default:
		return Location{Scheme: SchemeLocal, Path: raw}, nil
	}
}

// Open returns the content stored at raw
func Open(ctx context.Context, raw string, cfg *S3Config) (io.ReadCloser, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case SchemeHTTP:
		return getHTTP(ctx, loc.Path)
	case SchemeS3:
		return getS3(ctx, loc, cfg)
	default:
		return os.Open(loc.Path)
	}
}

// Put stores the size bytes of body at raw, replacing what is there.
// body is sent to S3 as is, with its length, so it is never buffered.
func Put(ctx context.Context, raw string, body io.ReadSeeker, size int64, cfg *S3Config) error {
	loc, err := ParseLocation(raw)
	if err != nil {
		return err
	}

	switch loc.Scheme {
	case SchemeHTTP:
		return fmt.Errorf("%w: %s", ErrReadOnly, raw)
	case SchemeS3:
		return putS3(ctx, loc, body, size, cfg)
	default:
		return putLocal(loc.Path, body)
	}
}

// putLocal writes body next to path and renames it into place
func putLocal(path string, body io.Reader) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			multierr.AppendInto(&err, os.Remove(tmp.Name()))
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		return multierr.Append(fmt.Errorf("failed to write %s: %w", path, err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp → %s: %w", path, err)
	}
	return nil
}

func getHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}

	client := &http.Client{Timeout: HTTPTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s returned status %d", url, resp.StatusCode)
	}

	return resp.Body, nil
}

func getS3(ctx context.Context, loc Location, cfg *S3Config) (io.ReadCloser, error) {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", loc, err)
	}
	return out.Body, nil
}

func putS3(ctx context.Context, loc Location, body io.ReadSeeker, size int64, cfg *S3Config) error {
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(loc.Key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", loc, err)
	}
	return nil
}

func newS3Client(ctx context.Context, cfg *S3Config) (*s3.Client, error) {
	if cfg == nil {
		cfg = &S3Config{}
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
