// Package fetch retrieves the published snapshot document over HTTP or from a
// local file, decodes it and validates it before it reaches the rest of the service.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/validation"
)

// ErrNotModified is returned when the publisher reports the snapshot unchanged
// since the previous fetch.
var ErrNotModified = errors.New("snapshot not modified")

// maxSnapshotBytes bounds the decoded document size.
const maxSnapshotBytes = 32 << 20

// Client defines the interface that all snapshot sources implement
type Client interface {
	// Fetch retrieves and validates the current snapshot
	Fetch(ctx context.Context) (*model.Snapshot, error)
}

// Acknowledger is implemented by clients whose conditional requests must
// only advance once the caller has accepted the fetched snapshot.
type Acknowledger interface {
	Acknowledge()
}

// Options configure NewClient.
type Options struct {
	// Timeout bounds a whole fetch, retries included
	Timeout time.Duration

	// RetryMax is the number of retries after the first attempt, 0 disables retrying
	RetryMax int

	Logger logrus.FieldLogger
}

// NewClient returns an HTTP client for http(s) sources and a file client otherwise.
func NewClient(source string, opts Options) Client {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPClient(source, opts)
	}
	return NewFileClient(strings.TrimPrefix(source, "file://"))
}

// HTTPClient fetches the snapshot from a URL with retries and conditional requests.
type HTTPClient struct {
	url        string
	httpClient *http.Client
	log        logrus.FieldLogger

	mu sync.Mutex
	// etag of the last acknowledged snapshot, sent as If-None-Match
	etag string
	// etag of the last decoded response, pending acknowledgement
	pending string
}

// NewHTTPClient creates a snapshot client for url.
func NewHTTPClient(url string, opts Options) *HTTPClient {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	retryClient := newRetryClient(opts.RetryMax, log)
	httpClient := retryClient.StandardClient()
	httpClient.Timeout = opts.Timeout
	return &HTTPClient{
		url:        url,
		httpClient: httpClient,
		log:        log.WithField("source", url),
	}
}

// Fetch downloads, decodes and validates the snapshot. A 304 response yields ErrNotModified.
func (c *HTTPClient) Fetch(ctx context.Context) (*model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.mu.Lock()
	if c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}
	c.mu.Unlock()

	c.log.Debug("Fetching snapshot")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching snapshot: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, ErrNotModified
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("snapshot source error: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	snap, err := Decode(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pending = resp.Header.Get("ETag")
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"week":       snap.Week,
		"updated_at": snap.UpdatedAt,
		"entities":   len(snap.Entities),
	}).Info("Fetched snapshot")
	return snap, nil
}

// Acknowledge marks the last fetched snapshot as accepted, so later fetches
// ask the source only for newer content. Until then the source is asked
// again for the full document.
func (c *HTTPClient) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.etag = c.pending
}

// FileClient reads the snapshot from a local path.
type FileClient struct {
	path string
}

// NewFileClient creates a snapshot client for a file on disk.
func NewFileClient(path string) *FileClient {
	return &FileClient{path: path}
}

// Fetch reads, decodes and validates the snapshot file.
func (c *FileClient) Fetch(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("error opening snapshot: %w", err)
	}
	defer f.Close()
	return Decode(io.LimitReader(f, maxSnapshotBytes))
}

// Decode parses a snapshot document, drops unusable delegate rows and
// validates the result.
func Decode(r io.Reader) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("error decoding snapshot: %w", err)
	}
	snap.BoostDelegates = validation.FilterDelegates(snap.BoostDelegates)
	if err := validation.Snapshot(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// newRetryClient creates a new HTTP client with retry capabilities
func newRetryClient(retryMax int, log logrus.FieldLogger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.Logger = leveledLogger{log}
	return c
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) fields(keysAndValues []interface{}) logrus.FieldLogger {
	entry := l.log
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry = entry.WithField(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	return entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
