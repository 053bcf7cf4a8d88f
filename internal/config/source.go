package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Config holds S3 credentials and endpoint for s3:// sources.
type s3Config struct {
	accessKey string
	secretKey string
	region    string
	endpoint  string // optional S3-compatible endpoint
}

func s3ConfigFromEnv() *s3Config {
	return &s3Config{
		accessKey: os.Getenv("DBU_S3_ACCESS_KEY"),
		secretKey: os.Getenv("DBU_S3_SECRET_KEY"),
		region:    os.Getenv("DBU_S3_REGION"),
		endpoint:  os.Getenv("DBU_S3_ENDPOINT"),
	}
}

type urlScheme string

const (
	schemeFile  urlScheme = "file"
	schemeS3    urlScheme = "s3"
	schemeHTTP  urlScheme = "http"
	schemeHTTPS urlScheme = "https"
	schemeLocal urlScheme = "local"
)

// httpTimeout bounds fetching a configuration document over HTTP.
const httpTimeout = 30 * time.Second

func detectScheme(path string) urlScheme {
	lower := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return schemeS3
	case strings.HasPrefix(lower, "https://"):
		return schemeHTTPS
	case strings.HasPrefix(lower, "http://"):
		return schemeHTTP
	case strings.HasPrefix(lower, "file://"):
		return schemeFile
	default:
		return schemeLocal
	}
}

func openReader(ctx context.Context, path string, cfg *s3Config) (io.ReadCloser, error) {
	switch scheme := detectScheme(path); scheme {
	case schemeLocal, schemeFile:
		return osOpen(localPath(path, scheme))
	case schemeHTTP, schemeHTTPS:
		return openHTTPReader(ctx, path)
	case schemeS3:
		return openS3Reader(ctx, path, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

func openWriter(ctx context.Context, path string, cfg *s3Config) (io.WriteCloser, error) {
	switch scheme := detectScheme(path); scheme {
	case schemeLocal, schemeFile:
		return osCreate(localPath(path, scheme))
	case schemeHTTP, schemeHTTPS:
		return nil, errors.New("HTTP/HTTPS does not support writing")
	case schemeS3:
		return openS3Writer(ctx, path, cfg)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", path)
	}
}

func localPath(path string, scheme urlScheme) string {
	if scheme == schemeFile {
		return path[len("file://"):]
	}
	return path
}

func openHTTPReader(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build HTTP request: %w", err)
	}

	client := &http.Client{Timeout: httpTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// parseS3URL splits s3://bucket/key into its parts.
func parseS3URL(url string) (bucket, key string, err error) {
	path := url[len("s3://"):]
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL: %s", url)
	}
	return parts[0], parts[1], nil
}

func newS3Client(ctx context.Context, cfg *s3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg != nil && cfg.region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.region))
	}
	if cfg != nil && cfg.accessKey != "" && cfg.secretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.accessKey, cfg.secretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg != nil && cfg.endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func openS3Reader(ctx context.Context, url string, cfg *s3Config) (io.ReadCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get S3 object: %w", err)
	}
	return resp.Body, nil
}

// s3Writer buffers the document and uploads it on Close.
type s3Writer struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("writer is closed")
	}
	return w.buf.Write(p)
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.client.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   bytes.NewReader(w.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("upload to S3: %w", err)
	}
	return nil
}

func openS3Writer(ctx context.Context, url string, cfg *s3Config) (io.WriteCloser, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, err
	}
	client, err := newS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &s3Writer{ctx: ctx, client: client, bucket: bucket, key: key}, nil
}

// Swapped in tests.
var (
	osOpen = func(path string) (io.ReadCloser, error) {
		return os.Open(path)
	}
	osCreate = func(path string) (io.WriteCloser, error) {
		return os.Create(path)
	}
)
