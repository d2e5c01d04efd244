package webui

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/dashboard"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/render"
)

// Update is what the page receives: the view model plus the rendered
// fragments keyed by the DOM id they replace.
type Update struct {
	View      dashboard.View           `json:"view"`
	Fragments map[string]template.HTML `json:"fragments"`
}

func buildUpdate(v dashboard.View) Update {
	u := Update{View: v, Fragments: make(map[string]template.HTML, 6)}

	parts := []struct {
		name string
		data any
	}{
		{render.FragmentObjects, v.Objects},
		{render.FragmentFaces, v.Faces},
		{render.FragmentAlerts, v.Alerts},
		{render.FragmentStatus, v.Status},
		{render.FragmentNotification, v.Notification},
		{render.FragmentConfirmation, v.Confirmation},
	}
	for _, p := range parts {
		html, err := render.Fragment(p.name, p.data)
		if err != nil {
			logger.Error("WebUI", "Fragment error: %v", err)
			continue
		}
		u.Fragments[p.name] = html
	}
	return u
}

func jsonUpdate(v dashboard.View) ([]byte, error) {
	return json.Marshal(buildUpdate(v))
}

// encodeProtobuf serializes an update as a base64 protobuf Struct for SSE.
func encodeProtobuf(u Update) ([]byte, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	pbData, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("protobuf marshal: %w", err)
	}
	return []byte(base64.StdEncoding.EncodeToString(pbData)), nil
}
