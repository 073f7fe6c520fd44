// Package iopkg opens and creates combo inputs, snapshots and exports
// addressed by file:// or s3:// URIs.
package iopkg

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3iface is the minimal subset of s3 client methods we use; allows test fakes.
type s3iface interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3Client constructs an s3 client; overridden in tests.
var newS3Client = func(ctx context.Context) (s3iface, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	}), nil
}

// ErrUnsupportedScheme is returned for URIs that are neither file:// nor s3://.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// LocalPath returns the filesystem path of a file:// or scheme-less URI.
func LocalPath(uri string) (string, bool) {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://"), true
	}
	if !strings.Contains(uri, "://") {
		return uri, true
	}
	return "", false
}

func splitS3(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	bucket, key = u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", uri)
	}
	return bucket, key, nil
}

// Open returns a ReadCloser and (if known) size for file:// or s3:// URIs.
func Open(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	if p, ok := LocalPath(uri); ok {
		f, err := os.Open(p)
		if err != nil {
			return nil, 0, err
		}
		var sz int64
		if st, _ := f.Stat(); st != nil {
			sz = st.Size()
		}
		return f, sz, nil
	}
	bkt, key, err := splitS3(uri)
	if err != nil {
		return nil, 0, err
	}
	cl, err := newS3Client(ctx)
	if err != nil {
		return nil, 0, err
	}
	resp, err := cl.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bkt), Key: aws.String(key)})
	if err != nil {
		return nil, 0, err
	}
	var sz int64
	if resp.ContentLength != nil {
		sz = *resp.ContentLength
	}
	return resp.Body, sz, nil
}

// OpenText is Open plus transparent gunzip for URIs ending in .gz. The
// returned size is that of the stored object.
func OpenText(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	rc, sz, err := Open(ctx, uri)
	if err != nil {
		return nil, 0, err
	}
	if !strings.HasSuffix(strings.ToLower(uri), ".gz") {
		return rc, sz, nil
	}
	gr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, 0, err
	}
	return readCloser{Reader: gr, close: func() error {
		gerr := gr.Close()
		if err := rc.Close(); err != nil {
			return err
		}
		return gerr
	}}, sz, nil
}

// CreateWriter supports file:// and s3://. S3 objects are buffered in
// memory and uploaded on Close.
func CreateWriter(ctx context.Context, uri string) (io.Writer, io.Closer, error) {
	if p, ok := LocalPath(uri); ok {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.Create(p)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	bkt, key, err := splitS3(uri)
	if err != nil {
		return nil, nil, err
	}
	buf := &bytes.Buffer{}
	done := false
	return buf, closerFunc(func() error {
		if done {
			return nil
		}
		done = true
		cl, err := newS3Client(ctx)
		if err != nil {
			return err
		}
		_, err = cl.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bkt),
			Key:         aws.String(key),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("text/plain; charset=utf-8"),
		})
		return err
	}), nil
}

// Sibling returns the URI of name in the same directory as uri.
func Sibling(uri, name string) string {
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[:i+1] + name
	}
	return name
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
