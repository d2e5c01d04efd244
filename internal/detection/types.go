package detection

// UnknownFace is the name the backend reports for an unmatched face.
const UnknownFace = "Unknown"

// ObjectDetection mirrors a single object entry of /get_recent_detections.
type ObjectDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// DetectionEvent is one object-detection snapshot.
type DetectionEvent struct {
	Timestamp float64           `json:"timestamp"`
	Objects   []ObjectDetection `json:"objects"`
}

// FaceMatch is the recognition result for one face. Confidence is omitted by
// the backend for unmatched faces.
type FaceMatch struct {
	Name       string   `json:"name"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Unknown reports whether the face did not match any enrolled identity.
func (f FaceMatch) Unknown() bool {
	return f.Name == UnknownFace
}

// FaceEvent is one face-recognition snapshot.
type FaceEvent struct {
	Timestamp float64   `json:"timestamp"`
	Face      FaceMatch `json:"face"`
}

// RecentDetections is the payload of GET /get_recent_detections.
type RecentDetections struct {
	CameraRunning bool             `json:"camera_running"`
	Objects       []DetectionEvent `json:"objects,omitempty"`
	Faces         []FaceEvent      `json:"faces,omitempty"`
}

// CommandResult is the payload of POST /start_camera and /stop_camera.
type CommandResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Backend status strings that mark a successful command.
const (
	StatusCameraStarted = "Camera started successfully"
	StatusCameraStopped = "Camera stopped successfully"
)
