// Package render turns detection snapshots into the view models shown on the
// dashboard. Rendering also raises the alerts derived from what is shown.
package render

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/alerts"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/detection"
)

// TimeLayout is the local clock format used for group headers and alerts.
const TimeLayout = "3:04:05 PM"

// Placeholder texts for empty lists.
const (
	NoObjects = "No object detections"
	NoFaces   = "No face recognitions"
)

// AlertSink receives alerts synthesized while rendering.
type AlertSink interface {
	AddUnique(a alerts.Alert, dup func(existing alerts.Alert) bool) bool
}

// ObjectRow is one rendered object.
type ObjectRow struct {
	Label      string `json:"label"`
	Confidence string `json:"confidence"`
}

// ObjectGroup holds the objects detected at one displayed time.
type ObjectGroup struct {
	Time    string      `json:"time"`
	Objects []ObjectRow `json:"objects"`
}

// ObjectsView is the rendered object list.
type ObjectsView struct {
	Filter detection.ObjectFilter `json:"filter"`
	Groups []ObjectGroup          `json:"groups"`
	Count  int                    `json:"count"`
}

// Empty reports whether the placeholder should be shown.
func (v ObjectsView) Empty() bool { return len(v.Groups) == 0 }

// FaceRow is one rendered face event.
type FaceRow struct {
	Time       string `json:"time"`
	Name       string `json:"name"`
	Unknown    bool   `json:"unknown"`
	Confidence string `json:"confidence,omitempty"`
}

// FacesView is the rendered face list.
type FacesView struct {
	Filter detection.FaceFilter `json:"filter"`
	Rows   []FaceRow            `json:"rows"`
	Count  int                  `json:"count"`
}

// Empty reports whether the placeholder should be shown.
func (v FacesView) Empty() bool { return len(v.Rows) == 0 }

// Renderer builds list views in a fixed time zone.
type Renderer struct {
	loc  *time.Location
	sink AlertSink
}

// New returns a Renderer. A nil loc means time.Local; a nil sink drops alerts.
func New(loc *time.Location, sink AlertSink) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{loc: loc, sink: sink}
}

// FormatTime converts a unix timestamp in seconds to the displayed clock time.
func (r *Renderer) FormatTime(ts float64) string {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).In(r.loc).Format(TimeLayout)
}

// FormatConfidence renders a [0,1] confidence as a percentage with one decimal.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// Objects sorts events newest first, keeps the objects passing filter, and
// groups them by displayed time. Every shown person raises a Person Detected
// alert unless one already exists for that time.
func (r *Renderer) Objects(events []detection.DetectionEvent, filter detection.ObjectFilter) ObjectsView {
	slices.SortStableFunc(events, func(a, b detection.DetectionEvent) int {
		return compareDesc(a.Timestamp, b.Timestamp)
	})

	view := ObjectsView{Filter: filter}
	index := make(map[string]int)

	for _, ev := range events {
		ts := r.FormatTime(ev.Timestamp)
		for _, obj := range ev.Objects {
			if !filter.Match(obj.Label) {
				continue
			}

			i, ok := index[ts]
			if !ok {
				i = len(view.Groups)
				index[ts] = i
				view.Groups = append(view.Groups, ObjectGroup{Time: ts})
			}
			view.Groups[i].Objects = append(view.Groups[i].Objects, ObjectRow{
				Label:      obj.Label,
				Confidence: FormatConfidence(obj.Confidence),
			})
			view.Count++

			if obj.Label == "person" {
				r.raise(alerts.Alert{
					Title:   alerts.TitlePersonDetected,
					Message: "Person detected with confidence " + FormatConfidence(obj.Confidence),
					Time:    ts,
				}, alerts.SameTitleAndTime(alerts.TitlePersonDetected, ts))
			}
		}
	}
	return view
}

// Faces sorts events newest first and keeps the events passing filter. Every
// shown face raises an Unknown Face or Face Recognized alert unless an
// equivalent one already exists.
func (r *Renderer) Faces(events []detection.FaceEvent, filter detection.FaceFilter) FacesView {
	slices.SortStableFunc(events, func(a, b detection.FaceEvent) int {
		return compareDesc(a.Timestamp, b.Timestamp)
	})

	view := FacesView{Filter: filter}
	for _, ev := range events {
		if !filter.Match(ev.Face) {
			continue
		}

		ts := r.FormatTime(ev.Timestamp)
		row := FaceRow{Time: ts, Name: ev.Face.Name, Unknown: ev.Face.Unknown()}
		if ev.Face.Confidence != nil {
			row.Confidence = FormatConfidence(*ev.Face.Confidence)
		}
		view.Rows = append(view.Rows, row)

		if row.Unknown {
			r.raise(alerts.Alert{
				Title:   alerts.TitleUnknownFace,
				Message: "An unknown face was detected",
				Time:    ts,
			}, alerts.SameTitleAndTime(alerts.TitleUnknownFace, ts))
		} else {
			r.raise(alerts.Alert{
				Title:   alerts.TitleFaceRecognized,
				Message: row.Name + " was recognized",
				Time:    ts,
			}, alerts.SameRecognition(row.Name, ts))
		}
	}
	view.Count = len(view.Rows)
	return view
}

func (r *Renderer) raise(a alerts.Alert, dup func(alerts.Alert) bool) {
	if r.sink != nil {
		r.sink.AddUnique(a, dup)
	}
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
