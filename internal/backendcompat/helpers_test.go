package backendcompat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/camclient"
)

const (
	defaultBaseURL        = "http://localhost:5000"
	defaultRequestTimeout = 2 * time.Second
)

type backendClient struct {
	baseURL string
	client  *http.Client
}

func newBackendClient(t *testing.T) *backendClient {
	t.Helper()
	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := &http.Client{Timeout: defaultRequestTimeout}

	if !isReachable(client, baseURL+camclient.PathRecentDetections) {
		t.Skipf("camera backend not reachable at %s (set BACKEND_BASE_URL to run)", baseURL)
	}

	return &backendClient{
		baseURL: baseURL,
		client:  client,
	}
}

// requireControl skips tests that start or stop the real camera unless
// BACKEND_ALLOW_CONTROL=1.
func requireControl(t *testing.T) {
	t.Helper()
	if os.Getenv("BACKEND_ALLOW_CONTROL") != "1" {
		t.Skip("set BACKEND_ALLOW_CONTROL=1 to start/stop the backend camera")
	}
}

func isReachable(client *http.Client, url string) bool {
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 500
}

func (c *backendClient) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	_ = resp.Body.Close()
	return resp, body
}

func (c *backendClient) postJSON(t *testing.T, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	_ = resp.Body.Close()
	return resp, respBody
}

func decodeJSONMap(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode json: %v\nbody=%s", err, string(body))
	}
	return payload
}

func requireString(t *testing.T, value any, field string) string {
	t.Helper()
	str, ok := value.(string)
	if !ok {
		t.Fatalf("expected %s to be string, got %T", field, value)
	}
	return str
}

func requireNumber(t *testing.T, value any, field string) float64 {
	t.Helper()
	num, ok := value.(float64)
	if !ok {
		t.Fatalf("expected %s to be number, got %T", field, value)
	}
	return num
}

func requireBool(t *testing.T, value any, field string) bool {
	t.Helper()
	b, ok := value.(bool)
	if !ok {
		t.Fatalf("expected %s to be bool, got %T", field, value)
	}
	return b
}

func requireMap(t *testing.T, value any, field string) map[string]any {
	t.Helper()
	m, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected %s to be object, got %T", field, value)
	}
	return m
}

func requireSlice(t *testing.T, value any, field string) []any {
	t.Helper()
	s, ok := value.([]any)
	if !ok {
		t.Fatalf("expected %s to be array, got %T", field, value)
	}
	return s
}

func assertObjectEvent(t *testing.T, raw any, field string) {
	t.Helper()
	event := requireMap(t, raw, field)
	requireNumber(t, event["timestamp"], field+".timestamp")
	for i, obj := range requireSlice(t, event["objects"], field+".objects") {
		o := requireMap(t, obj, fmt.Sprintf("%s.objects[%d]", field, i))
		requireString(t, o["label"], field+".objects.label")
		conf := requireNumber(t, o["confidence"], field+".objects.confidence")
		if conf < 0 || conf > 1 {
			t.Fatalf("%s.objects[%d].confidence = %v, want [0,1]", field, i, conf)
		}
	}
}

func assertFaceEvent(t *testing.T, raw any, field string) {
	t.Helper()
	event := requireMap(t, raw, field)
	requireNumber(t, event["timestamp"], field+".timestamp")
	face := requireMap(t, event["face"], field+".face")
	requireString(t, face["name"], field+".face.name")
	if face["confidence"] != nil {
		requireNumber(t, face["confidence"], field+".face.confidence")
	}
}
