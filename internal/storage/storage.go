// Package storage transfers local data to service-issued signed URLs.
// The service signs each URL for a single object, so a plain HTTP PUT is
// the whole protocol; credentials never reach the client.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Uploader writes local files and byte buffers to signed URLs.
type Uploader struct {
	httpClient *http.Client
}

// NewUploader creates an Uploader with a pooled transport.
func NewUploader() *Uploader {
	return &Uploader{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// PutData streams a local file to a signed URL.
func (u *Uploader) PutData(ctx context.Context, localPath, signedURL string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	return u.put(ctx, f, info.Size(), signedURL)
}

// PutBytes uploads an in-memory buffer (e.g. a packaged script archive)
// to a signed URL.
func (u *Uploader) PutBytes(ctx context.Context, data []byte, signedURL string) error {
	return u.put(ctx, bytes.NewReader(data), int64(len(data)), signedURL)
}

func (u *Uploader) put(ctx context.Context, body io.Reader, size int64, signedURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload: HTTP %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
