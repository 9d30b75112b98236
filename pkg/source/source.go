// Package source loads the leaderboard dataset from a remote URL or a local
// file, caches it, and keeps a store refreshed.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotModified is returned by a Source when the payload matches the
// supplied etag.
var ErrNotModified = errors.New("not modified")

// maxPayload bounds a single download.
const maxPayload = 256 << 20

// Payload is a raw dataset document.
type Payload struct {
	Data []byte
	ETag string
}

// Source fetches the raw dataset. etag is the value of the last payload
// seen, empty if none.
type Source interface {
	Key() string
	Fetch(ctx context.Context, etag string) (Payload, error)
}

// HTTPSource downloads the dataset over HTTP(S).
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns a source for url. A non-empty token is sent as a
// bearer token.
func NewHTTPSource(ctx context.Context, url, token string) *HTTPSource {
	client := &http.Client{Timeout: 60 * time.Second}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, client), ts)
	}
	return &HTTPSource{URL: url, Client: client}
}

func (s *HTTPSource) Key() string { return s.URL }

func (s *HTTPSource) Fetch(ctx context.Context, etag string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return Payload{ETag: etag}, ErrNotModified
	case resp.StatusCode != http.StatusOK:
		return Payload{}, fmt.Errorf("fetching %s: unexpected status %s", s.URL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return Payload{}, fmt.Errorf("reading %s: %w", s.URL, err)
	}
	return Payload{Data: data, ETag: resp.Header.Get("ETag")}, nil
}

// FileSource reads the dataset from a local JSON file. Its etag is the
// content hash.
type FileSource struct {
	Path string
}

func (s *FileSource) Key() string { return "file:" + s.Path }

func (s *FileSource) Fetch(ctx context.Context, etag string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Payload{}, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	sum := sha256.Sum256(data)
	tag := `"` + hex.EncodeToString(sum[:8]) + `"`
	if tag == etag {
		return Payload{ETag: tag}, ErrNotModified
	}
	return Payload{Data: data, ETag: tag}, nil
}

// New picks a file source when file is set and an HTTP source otherwise.
func New(ctx context.Context, url, file, token string) (Source, error) {
	switch {
	case file != "":
		return &FileSource{Path: file}, nil
	case url != "":
		return NewHTTPSource(ctx, url, token), nil
	default:
		return nil, errors.New("no dataset source configured")
	}
}
