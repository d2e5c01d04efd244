package dashboard

import (
	"context"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/detection"
)

// CameraAPI is the backend the controller drives.
type CameraAPI interface {
	StartCamera(ctx context.Context, useDroidcam bool) (*detection.CommandResult, error)
	StopCamera(ctx context.Context) (*detection.CommandResult, error)
	RecentDetections(ctx context.Context) (*detection.RecentDetections, error)
}

// Observer receives controller events for instrumentation.
type Observer interface {
	PollSucceeded(latency time.Duration)
	PollFailed()
	PollSkipped()
	StreamFailed()
	AlertRaised(title string)
	CameraRunning(running bool)
	CommandFinished(command string, err error)
}

type nopObserver struct{}

func (nopObserver) PollSucceeded(time.Duration)   {}
func (nopObserver) PollFailed()                   {}
func (nopObserver) PollSkipped()                  {}
func (nopObserver) StreamFailed()                 {}
func (nopObserver) AlertRaised(string)            {}
func (nopObserver) CameraRunning(bool)            {}
func (nopObserver) CommandFinished(string, error) {}
