package webui

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>IVSS Dashboard</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css">
    <style>
        body { font-family: system-ui, sans-serif; background: #f4f6f8; margin: 0; color: #212529; }
        .app { max-width: 1280px; margin: 0 auto; padding: 16px; }
        .header { display: flex; justify-content: space-between; align-items: center; }
        .grid { display: grid; grid-template-columns: 2fr 1fr; gap: 16px; }
        .panel { background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
        .panel h2 { display: flex; justify-content: space-between; font-size: 1.1rem; }
        #videoFeed { width: 100%; background: #212529; border-radius: 6px; }
        .controls { display: flex; gap: 8px; align-items: center; margin-top: 12px; }
        .status-icon { display: inline-block; width: 10px; height: 10px; border-radius: 50%; background: #adb5bd; }
        .status-icon.active, .status-icon.connected { background: #2fb344; }
        .status-icon.connecting { background: #f59f00; }
        .status-icon.error { background: #d63939; }
        .list { max-height: 320px; overflow-y: auto; }
        .detection-item, .alert-item { border-bottom: 1px solid #e9ecef; padding: 6px 0; }
        .detection-time, .alert-time { font-size: .8rem; color: #868e96; }
        .detection-object, .detection-face { display: flex; justify-content: space-between; }
        .unknown-face { color: #d63939; font-weight: 600; }
        .alert-item { display: flex; gap: 8px; }
        .no-data { color: #868e96; font-style: italic; }
        .notification { position: fixed; top: 16px; right: 16px; padding: 12px 16px; border-radius: 6px; color: #fff; }
        .notification-error { background: #d63939; }
        .notification-info { background: #206bc4; }
        .modal { position: fixed; top: 30%; left: 50%; transform: translateX(-50%); background: #fff; padding: 24px; border-radius: 8px; box-shadow: 0 4px 24px rgba(0,0,0,.3); }
        #loadingIndicator { display: none; }
        #loadingIndicator.visible { display: inline; }
    </style>
</head>
<body>
    <div class="app">
        <div class="header">
            <h1>IVSS Dashboard</h1>
            <div id="statusBar">{{index .Fragments "statusBar"}}</div>
        </div>

        <div class="grid">
            <div class="panel">
                <img id="videoFeed" src="{{.View.VideoSrc}}" alt="Camera feed">
                <div class="controls">
                    <button type="button" id="startCameraBtn"{{if not .View.Controls.StartEnabled}} disabled{{end}}>Start Camera</button>
                    <label><input type="checkbox" id="useDroidcam"> Use DroidCam</label>
                    <button type="button" id="stopCameraBtn" data-action="/api/camera/stop"{{if not .View.Controls.StopEnabled}} disabled{{end}}>Stop Camera</button>
                    <button type="button" id="refreshStreamBtn" data-action="/api/stream/refresh"{{if not .View.Controls.RefreshEnabled}} disabled{{end}}>Refresh Stream</button>
                    <span id="loadingIndicator"{{if .View.Loading}} class="visible"{{end}}><i class="fas fa-spinner fa-spin"></i></span>
                </div>
            </div>

            <div class="panel">
                <h2>Alerts <span id="alertCount">{{.View.Alerts.Count}}</span></h2>
                <button type="button" id="clearAlertsBtn" data-action="/api/clear/alerts">Clear</button>
                <div class="list" id="alertsList">{{index .Fragments "alertsList"}}</div>
            </div>

            <div class="panel">
                <h2>Object Detections <span id="objectCount">{{.View.Objects.Count}}</span></h2>
                <select id="objectFilterSelect" data-filter="objects">
                    {{- range .ObjectFilters}}
                    <option value="{{.}}"{{if eq . $.View.Objects.Filter}} selected{{end}}>{{.}}</option>
                    {{- end}}
                </select>
                <button type="button" id="clearObjectsBtn" data-action="/api/clear/objects">Clear</button>
                <div class="list" id="objectDetections">{{index .Fragments "objectDetections"}}</div>
            </div>

            <div class="panel">
                <h2>Face Recognitions <span id="faceCount">{{.View.Faces.Count}}</span></h2>
                <select id="faceFilterSelect" data-filter="faces">
                    {{- range .FaceFilters}}
                    <option value="{{.}}"{{if eq . $.View.Faces.Filter}} selected{{end}}>{{.}}</option>
                    {{- end}}
                </select>
                <button type="button" id="clearFacesBtn" data-action="/api/clear/faces">Clear</button>
                <div class="list" id="faceRecognitions">{{index .Fragments "faceRecognitions"}}</div>
            </div>
        </div>
    </div>

    <div id="errorNotification">{{index .Fragments "errorNotification"}}</div>
    <div id="confirmationModal">{{index .Fragments "confirmationModal"}}</div>

    <script>
    (function () {
        const $ = (id) => document.getElementById(id);
        const video = $('videoFeed');

        function post(path, body) {
            return fetch(path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: body ? JSON.stringify(body) : null,
            }).then((r) => r.json().catch(() => null)).then((u) => { if (u && u.view) apply(u); });
        }

        function apply(update) {
            const v = update.view;
            for (const [id, html] of Object.entries(update.fragments || {})) {
                const el = $(id);
                if (el) el.innerHTML = html;
            }
            $('objectCount').textContent = v.objects.count;
            $('faceCount').textContent = v.faces.count;
            $('alertCount').textContent = v.alerts.count;
            $('objectFilterSelect').value = v.objects.filter;
            $('faceFilterSelect').value = v.faces.filter;
            $('startCameraBtn').disabled = !v.controls.start_enabled || v.loading;
            $('stopCameraBtn').disabled = !v.controls.stop_enabled;
            $('refreshStreamBtn').disabled = !v.controls.refresh_enabled;
            $('loadingIndicator').classList.toggle('visible', v.loading);
            if (video.getAttribute('src') !== v.video_src) video.setAttribute('src', v.video_src);
        }

        document.addEventListener('click', (e) => {
            const el = e.target.closest('[data-action]');
            if (el && !el.disabled) post(el.dataset.action);
        });
        $('startCameraBtn').addEventListener('click', () => {
            post('/api/camera/start', { use_droidcam: $('useDroidcam').checked });
        });
        document.querySelectorAll('[data-filter]').forEach((sel) => {
            sel.addEventListener('change', () => post('/api/filters', { [sel.dataset.filter]: sel.value }));
        });

        video.addEventListener('load', () => {
            if (video.getAttribute('src').startsWith('/video_feed')) post('/api/stream/loaded');
        });
        video.addEventListener('error', () => {
            if (video.getAttribute('src').startsWith('/video_feed')) post('/api/stream/failed');
        });

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            const ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onmessage = (e) => apply(JSON.parse(e.data));
            ws.onclose = () => setTimeout(connect, 2000);
        }
        if ('WebSocket' in window) {
            connect();
        } else {
            new EventSource('/api/events').onmessage = (e) => apply(JSON.parse(e.data));
        }
    })();
    </script>
</body>
</html>
`

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Update
	ObjectFilters []string
	FaceFilters   []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Update:        buildUpdate(s.ctrl.View()),
		ObjectFilters: []string{"all", "person", "vehicle", "animal"},
		FaceFilters:   []string{"all", "known", "unknown"},
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		logger.Error("WebUI", "Index render error: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
