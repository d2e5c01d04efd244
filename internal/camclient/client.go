// Package camclient talks to the camera backend's HTTP API.
package camclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/detection"
)

// Backend paths.
const (
	PathStartCamera      = "/start_camera"
	PathStopCamera       = "/stop_camera"
	PathRecentDetections = "/get_recent_detections"
	PathVideoFeed        = "/video_feed"
)

// HTTPError is returned for any non-2xx backend response.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// CommandError is returned when start/stop answered 2xx with a status other
// than the expected success marker.
type CommandError struct {
	Status  string
	Message string
}

func (e *CommandError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Unknown error"
}

// IsHTTPStatus reports whether err is an HTTPError with the given code.
func IsHTTPStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// Client calls the camera backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. Each request is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StartCamera asks the backend to start capturing. The returned result is
// non-nil whenever err is nil or a *CommandError.
func (c *Client) StartCamera(ctx context.Context, useDroidcam bool) (*detection.CommandResult, error) {
	body := map[string]bool{"use_droidcam": useDroidcam}
	return c.command(ctx, PathStartCamera, body, detection.StatusCameraStarted)
}

// StopCamera asks the backend to stop capturing.
func (c *Client) StopCamera(ctx context.Context) (*detection.CommandResult, error) {
	return c.command(ctx, PathStopCamera, nil, detection.StatusCameraStopped)
}

// RecentDetections fetches the latest detection snapshot.
func (c *Client) RecentDetections(ctx context.Context) (*detection.RecentDetections, error) {
	var out detection.RecentDetections
	if err := c.do(ctx, http.MethodGet, PathRecentDetections, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoFeedURL returns the feed path with a cache-busting query, as bound to
// the page's video element.
func VideoFeedURL(cacheBuster int64) string {
	return PathVideoFeed + "?" + strconv.FormatInt(cacheBuster, 10)
}

func (c *Client) command(ctx context.Context, path string, payload any, success string) (*detection.CommandResult, error) {
	var result detection.CommandResult
	if err := c.do(ctx, http.MethodPost, path, payload, &result); err != nil {
		return nil, err
	}
	if result.Status != success {
		return &result, &CommandError{Status: result.Status, Message: result.Message}
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &HTTPError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
