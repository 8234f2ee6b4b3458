// Package scriptmode prepares a self-contained workflow script for
// registration: derives a content-based version and packages the script
// as a tar.gz archive for distribution to the execution image.
package scriptmode

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// versionLen is the number of hex characters kept from the script digest.
const versionLen = 16

// HashScriptFile derives the workflow version from the script contents.
// Identical content always yields the identical version, so re-registering
// an unchanged script is a no-op on the service side.
func HashScriptFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash script: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil))[:versionLen], nil
}

// ArchiveSuffix returns the upload-location suffix for a script version.
func ArchiveSuffix(version string) string {
	return "scriptmode-" + version + ".tar.gz"
}

// Package builds a tar.gz archive containing the single script file.
// Header timestamps are zeroed so the archive bytes depend only on the
// script contents.
func Package(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	hdr := &tar.Header{
		Name:    filepath.Base(path),
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Unix(0, 0),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("write tar header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return nil, fmt.Errorf("write tar body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}

	return buf.Bytes(), nil
}
