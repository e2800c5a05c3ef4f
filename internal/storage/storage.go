// Package storage publishes produced files. When a bucket is configured,
// files are uploaded to the storage service's object API and addressed by
// URL; without one, small files travel inline as base64 and large files
// stay on disk by path.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vk/promptweave/internal/ctxlog"
)

// inlineLimit is the largest file returned as base64 when no bucket is
// configured.
const inlineLimit = 10 * 1024 * 1024

// signedURLExpiry is the lifetime requested for signed download links.
const signedURLExpiry = time.Hour

// Config points at one storage bucket. Empty URL or Key disables uploads.
type Config struct {
	URL    string
	Key    string
	Bucket string
}

// Enabled reports whether uploads are configured.
func (c Config) Enabled() bool {
	return c.URL != "" && c.Key != ""
}

// LocalFile is one produced file on the local filesystem.
type LocalFile struct {
	Type     string
	Filename string
	Path     string
}

// StoredFile describes where one file ended up. Exactly one addressing
// style is populated: URL fields after an upload, Data for an inline
// fallback, Path for a file too large to inline.
type StoredFile struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`

	URL        string `json:"url,omitempty"`
	SignedURL  string `json:"signed_url,omitempty"`
	RemotePath string `json:"path,omitempty"`
	Size       int64  `json:"size,omitempty"`

	Data     string `json:"data,omitempty"`
	Encoding string `json:"encoding,omitempty"`

	LocalPath string `json:"local_path,omitempty"`

	// UploadError records a failed upload that fell back to inline data.
	UploadError string `json:"upload_error,omitempty"`
}

// Store uploads files to the bucket named in its config.
type Store struct {
	cfg  Config
	http *http.Client
	// now is split out so tests can pin the date used in remote paths.
	now func() time.Time
}

// New builds a store. A nil httpClient falls back to a client with a 60s
// timeout, sized for multi-megabyte video uploads.
func New(cfg Config, httpClient *http.Client) *Store {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Store{cfg: cfg, http: httpClient, now: time.Now}
}

// Enabled reports whether the store will upload rather than inline.
func (s *Store) Enabled() bool {
	return s.cfg.Enabled()
}

// UploadResult is the addressing data for one uploaded object.
type UploadResult struct {
	URL        string
	SignedURL  string
	RemotePath string
	Size       int64
}

// Upload puts the local file at remotePath in the bucket and returns its
// public URL plus a signed URL. A missing signed URL is not an error; the
// public URL always works on public buckets.
func (s *Store) Upload(ctx context.Context, localPath, remotePath string) (UploadResult, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("reading %s: %w", localPath, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.cfg.URL, s.cfg.Bucket, remotePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.http.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("uploading %s: %w", remotePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return UploadResult{}, fmt.Errorf("upload of %s failed (%d): %s", remotePath, resp.StatusCode, body)
	}

	result := UploadResult{
		URL:        fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.cfg.URL, s.cfg.Bucket, remotePath),
		RemotePath: remotePath,
		Size:       int64(len(data)),
	}
	if signed, err := s.sign(ctx, remotePath); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not create signed URL.", "path", remotePath, "error", err)
	} else {
		result.SignedURL = signed
	}
	return result, nil
}

// sign requests a time-limited download URL for an uploaded object.
func (s *Store) sign(ctx context.Context, remotePath string) (string, error) {
	payload, _ := json.Marshal(map[string]int{"expiresIn": int(signedURLExpiry.Seconds())})
	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.cfg.URL, s.cfg.Bucket, remotePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign request failed with status %d", resp.StatusCode)
	}
	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return s.cfg.URL + "/storage/v1" + out.SignedURL, nil
}

// Publish resolves every produced file to a StoredFile. Uploaded files are
// removed from disk afterwards; a failed upload falls back to inline data
// and leaves the file in place. Missing files are skipped with a warning.
func (s *Store) Publish(ctx context.Context, files []LocalFile) []StoredFile {
	logger := ctxlog.FromContext(ctx)
	batchID := uuid.NewString()[:8]
	day := s.now().Format("2006-01-02")

	var results []StoredFile
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			logger.Warn("Produced file not found, skipping.", "path", f.Path)
			continue
		}

		result := StoredFile{Type: f.Type, Filename: f.Filename}

		if s.Enabled() {
			remotePath := fmt.Sprintf("outputs/%s/%s/%s", day, batchID, f.Filename)
			uploaded, err := s.Upload(ctx, f.Path, remotePath)
			if err != nil {
				logger.Error("Upload failed, falling back to inline data.", "error", err)
				result.UploadError = err.Error()
				s.inline(ctx, f, info.Size(), &result)
			} else {
				result.URL = uploaded.URL
				result.SignedURL = uploaded.SignedURL
				result.RemotePath = uploaded.RemotePath
				result.Size = uploaded.Size
				if err := os.Remove(f.Path); err != nil {
					logger.Warn("Could not remove uploaded file.", "path", f.Path, "error", err)
				}
			}
		} else {
			s.inline(ctx, f, info.Size(), &result)
		}
		results = append(results, result)
	}
	return results
}

func (s *Store) inline(ctx context.Context, f LocalFile, size int64, result *StoredFile) {
	if size >= inlineLimit {
		result.LocalPath = f.Path
		result.Size = size
		return
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Could not read file for inlining.", "path", f.Path, "error", err)
		result.LocalPath = f.Path
		return
	}
	result.Data = base64.StdEncoding.EncodeToString(data)
	result.Encoding = "base64"
}
