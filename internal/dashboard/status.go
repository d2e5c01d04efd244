package dashboard

import (
	"strings"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/render"
)

// ConnectionState is the backend connection indicator.
type ConnectionState string

const (
	Connected     ConnectionState = "Connected"
	Connecting    ConnectionState = "Connecting"
	Disconnecting ConnectionState = "Disconnecting"
	Disconnected  ConnectionState = "Disconnected"
	ConnError     ConnectionState = "Error"
)

// Camera status texts.
const (
	CameraIdle    = "Idle"
	CameraRunning = "Running"
	CameraError   = "Error"
)

func cameraStatus(text string, isError bool) render.StatusView {
	class := "active"
	switch {
	case isError:
		class = "error"
	case text == CameraIdle:
		class = ""
	}
	return render.StatusView{Text: text, Class: class}
}

func connectionStatus(state ConnectionState) render.StatusView {
	class := ""
	switch state {
	case Connected, Connecting, Disconnected, ConnError:
		class = strings.ToLower(string(state))
	}
	return render.StatusView{Text: string(state), Class: class}
}
