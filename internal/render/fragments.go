package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/alerts"
)

// StatusView is a status line: text plus the icon class.
type StatusView struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// StatusBarView pairs the camera and connection status lines.
type StatusBarView struct {
	Camera     StatusView `json:"camera"`
	Connection StatusView `json:"connection"`
}

// AlertsView is the rendered alert log, newest first.
type AlertsView struct {
	Items []alerts.Alert `json:"items"`
	Count int            `json:"count"`
}

// NewAlertsView wraps a newest-first alert list.
func NewAlertsView(items []alerts.Alert) AlertsView {
	return AlertsView{Items: items, Count: len(items)}
}

// NotificationView is the dismissible banner.
type NotificationView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PromptView is the confirmation modal.
type PromptView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Fragment names, also used as the DOM ids the fragments replace.
const (
	FragmentObjects      = "objectDetections"
	FragmentFaces        = "faceRecognitions"
	FragmentAlerts       = "alertsList"
	FragmentStatus       = "statusBar"
	FragmentNotification = "errorNotification"
	FragmentConfirmation = "confirmationModal"
)

const fragmentTemplates = `
{{define "objectDetections"}}
{{- range .Groups}}
<div class="detection-item">
    <div class="detection-time">{{.Time}}</div>
    {{- range .Objects}}
    <div class="detection-object">
        <span class="detection-name">{{.Label}}</span>
        <span class="detection-confidence">{{.Confidence}}</span>
    </div>
    {{- end}}
</div>
{{- else}}
<div class="no-data">No object detections</div>
{{- end}}
{{end}}

{{define "faceRecognitions"}}
{{- range .Rows}}
<div class="detection-item">
    <div class="detection-time">{{.Time}}</div>
    <div class="detection-face">
        <span class="detection-name {{if .Unknown}}unknown-face{{else}}known-face{{end}}">{{.Name}}</span>
        {{- if .Confidence}}
        <span class="detection-confidence">{{.Confidence}}</span>
        {{- end}}
    </div>
</div>
{{- else}}
<div class="no-data">No face recognitions</div>
{{- end}}
{{end}}

{{define "alertsList"}}
{{- range .Items}}
<div class="alert-item">
    <div class="alert-icon"><i class="fas fa-{{.Icon}}"></i></div>
    <div class="alert-content">
        <div class="alert-title">{{.Title}}</div>
        <div class="alert-message">{{.Message}}</div>
        <div class="alert-time">{{.Time}}</div>
    </div>
</div>
{{- end}}
{{end}}

{{define "statusBar"}}
<span class="status-icon {{.Camera.Class}}" id="statusIcon"></span>
<span id="statusText">{{.Camera.Text}}</span>
<span class="status-icon {{.Connection.Class}}" id="connectionIcon"></span>
<span id="connectionStatus">{{.Connection.Text}}</span>
{{end}}

{{define "errorNotification"}}
{{- with .}}
<div class="notification notification-{{.Kind}}">
    <span id="errorMessage">{{.Message}}</span>
    <button type="button" id="dismissError" data-action="/api/notification/dismiss">&times;</button>
</div>
{{- end}}
{{end}}

{{define "confirmationModal"}}
{{- with .}}
<div class="modal" data-prompt="{{.ID}}">
    <h3 id="confirmTitle">{{.Title}}</h3>
    <p id="confirmMessage">{{.Message}}</p>
    <button type="button" id="confirmCancel" data-action="/api/confirm/{{.ID}}/cancel">Cancel</button>
    <button type="button" id="confirmOk" data-action="/api/confirm/{{.ID}}">Confirm</button>
</div>
{{- end}}
{{end}}
`

var fragments = template.Must(template.New("fragments").Parse(fragmentTemplates))

// Fragment executes the named fragment template. Text coming from the backend
// (labels, names, messages) is escaped by html/template.
func Fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
