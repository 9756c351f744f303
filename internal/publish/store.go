// Package publish copies a finished replicate's output files to a blob store
// (a local directory, S3 / MinIO, or memory for tests) under
// <prefix>/<run-id>/<file name>.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Driver identifies a blob store backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// PutOptions carries optional object attributes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// ErrExists is returned when Put targets a key that is already stored.
var ErrExists = errors.New("blob already exists")

// Store is the create-only object store the publisher writes to.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Driver() Driver
}

// Open selects a store from target:
//
//	s3://bucket/prefix   S3 (region, endpoint and path style from FINSIM_S3_* env)
//	memory:prefix        process memory
//	file:///dir, /dir    local directory
//
// It returns the store and the key prefix to publish under.
func Open(ctx context.Context, target string) (Store, string, error) {
	switch {
	case strings.HasPrefix(target, "s3://"):
		rest := strings.TrimPrefix(target, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		st, err := OpenS3FromEnv(ctx, bucket)
		if err != nil {
			return nil, "", err
		}
		return st, strings.Trim(prefix, "/"), nil
	case strings.HasPrefix(target, "memory:"):
		return NewMemory(), strings.Trim(strings.TrimPrefix(target, "memory:"), "/"), nil
	case target == "":
		return nil, "", errors.New("publish: empty target")
	default:
		st, err := NewFilesystem(strings.TrimPrefix(target, "file://"))
		if err != nil {
			return nil, "", err
		}
		return st, "", nil
	}
}

// Publisher uploads local files for one run.
type Publisher struct {
	Store  Store
	Prefix string
}

// Key is the object key of name for runID.
func (p *Publisher) Key(runID, name string) string {
	return path.Join(p.Prefix, runID, name)
}

// Files uploads each path under its base name and returns the stored objects.
// The first failure stops the upload; objects already stored stay in place.
func (p *Publisher) Files(ctx context.Context, runID string, paths ...string) ([]Info, error) {
	var out []Info
	for _, fn := range paths {
		info, err := p.file(ctx, runID, fn)
		if err != nil {
			return out, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (p *Publisher) file(ctx context.Context, runID, fn string) (Info, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return Info{}, fmt.Errorf("publish %s: %w", fn, err)
	}
	defer fh.Close()
	name := filepath.Base(fn)
	info, err := p.Store.Put(ctx, p.Key(runID, name), fh, PutOptions{
		ContentType: contentType(name),
		Metadata:    map[string]string{"run-id": runID},
	})
	if err != nil {
		return Info{}, fmt.Errorf("publish %s to %s: %w", fn, p.Store.Driver(), err)
	}
	return info, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fasta", ".fa", ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func cloneMetadata(md map[string]string) map[string]string {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
