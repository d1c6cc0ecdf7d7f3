// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package file

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// IO reads and writes objects in the project's public bucket, addressing
// them by their public URL.
type IO struct {
	storage *storage.Client
	bucket  string
}

func NewIO(storage *storage.Client, bucket string) *IO {
	return &IO{
		storage: storage,
		bucket:  bucket,
	}
}

// WriteFile stores data at path and returns its public URL.
func (io *IO) WriteFile(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	wc := io.storage.Bucket(io.bucket).Object(path).NewWriter(ctx)
	defer func() {
		_ = wc.Close()
	}()
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		return "", fmt.Errorf("file: writing file: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("file: closing writer: %w", err)
	}
	return io.PublicURL(path), nil
}

// DeleteFile removes the object behind a public URL previously returned by
// WriteFile.
func (io *IO) DeleteFile(ctx context.Context, url string) error {
	path, ok := io.ObjectPath(url)
	if !ok {
		return fmt.Errorf("file: url %q is not in bucket %s", url, io.bucket)
	}
	if err := io.storage.Bucket(io.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("file: deleting file: %w", err)
	}
	return nil
}

// PublicURL returns the public URL for an object path in the bucket.
func (io *IO) PublicURL(path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", io.bucket, path)
}

// ObjectPath extracts the object path from a public URL of this bucket.
func (io *IO) ObjectPath(url string) (string, bool) {
	return strings.CutPrefix(url, fmt.Sprintf("https://storage.googleapis.com/%s/", io.bucket))
}
