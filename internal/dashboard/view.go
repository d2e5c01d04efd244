package dashboard

import "github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/render"

// Controls is the enablement of the camera buttons.
type Controls struct {
	StartEnabled   bool `json:"start_enabled"`
	StopEnabled    bool `json:"stop_enabled"`
	RefreshEnabled bool `json:"refresh_enabled"`
}

// View is a consistent snapshot of everything the page shows.
type View struct {
	Running      bool                     `json:"running"`
	Polling      bool                     `json:"polling"`
	Loading      bool                     `json:"loading"`
	Status       render.StatusBarView     `json:"status"`
	Controls     Controls                 `json:"controls"`
	VideoSrc     string                   `json:"video_src"`
	Objects      render.ObjectsView       `json:"objects"`
	Faces        render.FacesView         `json:"faces"`
	Alerts       render.AlertsView        `json:"alerts"`
	Notification *render.NotificationView `json:"notification"`
	Confirmation *render.PromptView       `json:"confirmation"`
}

// Notification kinds.
const (
	NoticeError = "error"
	NoticeInfo  = "info"
)
