package webui

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/placeholder"
)

// newFeedRelay forwards /video_feed, query included, to the backend and
// flushes every write so MJPEG parts reach the browser as they arrive.
func newFeedRelay(backend *url.URL) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
			pr.Out.Host = backend.Host
		},
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("Relay", "Video feed unavailable: %v", err)
			http.Error(w, "Video feed unavailable", http.StatusBadGateway)
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		proxy.ServeHTTP(w, r)
	})
}

func handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	data, err := placeholder.JPEG()
	if err != nil {
		http.Error(w, "Failed to render frame", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
