package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ObjectStore keeps uploaded combo files until a worker picks them up.
type ObjectStore interface {
	// Put writes body under key and returns a URI that iopkg.Open can read
	// (s3://bucket/key or file://path).
	Put(ctx context.Context, key string, body io.Reader) (string, error)
}

// ErrInvalidKey rejects empty keys and keys that escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return k, nil
}
