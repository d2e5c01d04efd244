// Package dashboard holds the camera dashboard's session state: camera and
// connection status, the stream source, the detection poller, the rendered
// lists and the confirmation gate.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/alerts"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/camclient"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/detection"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/render"
)

// PlaceholderPath is the idle image bound to the video element.
const PlaceholderPath = "/static/img/video-placeholder.jpg"

// ErrControlDisabled is returned for an action whose button is disabled in
// the current state.
var ErrControlDisabled = errors.New("control is disabled in the current state")

// ErrClosed is returned for camera commands after Close.
var ErrClosed = errors.New("dashboard controller is closed")

// Options tunes a Controller. Zero values take the defaults.
type Options struct {
	PollInterval           time.Duration
	PollFailureThreshold   int
	StreamFailureThreshold int
	StreamErrorTimeout     time.Duration
	AlertCapacity          int
	Location               *time.Location
	Observer               Observer
	Now                    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollFailureThreshold <= 0 {
		o.PollFailureThreshold = 5
	}
	if o.StreamFailureThreshold <= 0 {
		o.StreamFailureThreshold = 3
	}
	if o.StreamErrorTimeout <= 0 {
		o.StreamErrorTimeout = 5 * time.Second
	}
	if o.AlertCapacity <= 0 {
		o.AlertCapacity = alerts.DefaultCapacity
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller owns the dashboard session. All fields below mu are guarded by
// it; backend calls are always made with mu released.
type Controller struct {
	api      CameraAPI
	opts     Options
	obs      Observer
	alerts   *alerts.Log
	renderer *render.Renderer
	dialog   *Dialog
	poller   *Poller
	baseCtx  context.Context
	cancel   context.CancelFunc

	mu           sync.Mutex
	closed       bool
	running      bool
	epoch        uint64
	loading      bool
	camera       render.StatusView
	connection   render.StatusView
	controls     Controls
	videoSrc     string
	streamFails  int
	pollFails    int
	objects      []detection.DetectionEvent
	faces        []detection.FaceEvent
	objectFilter detection.ObjectFilter
	faceFilter   detection.FaceFilter
	objectsView  render.ObjectsView
	facesView    render.FacesView
	notification *render.NotificationView
	noticeSeq    uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New creates an idle controller.
func New(api CameraAPI, opts Options) *Controller {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		api:          api,
		opts:         opts,
		obs:          opts.Observer,
		alerts:       alerts.NewLog(opts.AlertCapacity),
		baseCtx:      ctx,
		cancel:       cancel,
		objectFilter: detection.ObjectsAll,
		faceFilter:   detection.FacesAll,
		subs:         make(map[int]chan struct{}),
	}
	c.alerts.OnAdd(func(a alerts.Alert) {
		logger.Debug("Alerts", "%s: %s (%s)", a.Title, a.Message, a.Time)
		c.obs.AlertRaised(a.Title)
	})
	c.renderer = render.New(opts.Location, c.alerts)
	c.dialog = NewDialog(c.publish)
	c.poller = NewPoller(opts.PollInterval, c.FetchDetections, c.obs.PollSkipped)

	c.camera = cameraStatus(CameraIdle, false)
	c.connection = connectionStatus(Disconnected)
	c.controls = Controls{StartEnabled: true}
	c.videoSrc = PlaceholderPath
	c.objectsView = c.renderer.Objects(nil, c.objectFilter)
	c.facesView = c.renderer.Faces(nil, c.faceFilter)
	return c
}

// Run blocks until ctx is done, then stops polling.
func (c *Controller) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return nil
}

// Close stops polling and aborts in-flight fetches.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.poller.Stop()
	c.mu.Unlock()
	c.cancel()
}

// Resume adopts a camera that is already running on the backend, e.g. after
// the dashboard process restarted.
func (c *Controller) Resume(ctx context.Context) error {
	data, err := c.api.RecentDetections(ctx)
	if err != nil {
		return fmt.Errorf("probe backend: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !data.CameraRunning || c.running || c.loading {
		c.mu.Unlock()
		return nil
	}
	c.enterRunningLocked()
	c.applySnapshotLocked(data)
	c.mu.Unlock()

	logger.Info("Controller", "Backend camera already running, resumed polling")
	c.obs.CameraRunning(true)
	c.publish()
	return nil
}

// StartCamera asks the backend to start the camera and, on success, binds the
// feed and starts polling. Failures are surfaced in the view and returned.
func (c *Controller) StartCamera(ctx context.Context, useDroidcam bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.running || c.loading {
		c.mu.Unlock()
		return ErrControlDisabled
	}
	c.loading = true
	c.connection = connectionStatus(Connecting)
	c.mu.Unlock()
	c.publish()

	_, err := c.api.StartCamera(ctx, useDroidcam)
	c.obs.CommandFinished("start", err)

	c.mu.Lock()
	c.loading = false
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.camera = cameraStatus(CameraError, true)
		c.connection = connectionStatus(ConnError)
		c.notifyLocked(NoticeError, commandFailure("start", err), 0)
		c.mu.Unlock()
		c.publish()
		return fmt.Errorf("start camera: %w", err)
	}
	c.enterRunningLocked()
	c.mu.Unlock()

	logger.Info("Controller", "Camera started (droidcam=%v)", useDroidcam)
	c.obs.CameraRunning(true)
	c.publish()
	return nil
}

// RequestStopCamera opens the Stop Camera confirmation.
func (c *Controller) RequestStopCamera() (render.PromptView, error) {
	c.mu.Lock()
	enabled := c.controls.StopEnabled
	c.mu.Unlock()
	if !enabled {
		return render.PromptView{}, ErrControlDisabled
	}
	return c.dialog.Request("Stop Camera", "Are you sure you want to stop the camera?", func(ctx context.Context) {
		if err := c.stopCamera(ctx); err != nil {
			logger.Warn("Controller", "Stop camera failed: %v", err)
		}
	}), nil
}

// stopCamera runs when the Stop Camera prompt is accepted. The prompt can
// outlive the running session, so the state is checked again here.
func (c *Controller) stopCamera(ctx context.Context) error {
	c.mu.Lock()
	if !c.running || c.loading {
		c.mu.Unlock()
		return ErrControlDisabled
	}
	previous := c.connection
	c.connection = connectionStatus(Disconnecting)
	c.mu.Unlock()
	c.publish()

	_, err := c.api.StopCamera(ctx)
	c.obs.CommandFinished("stop", err)

	c.mu.Lock()
	if err != nil {
		c.camera = cameraStatus(CameraError, true)
		c.connection = previous
		c.notifyLocked(NoticeError, commandFailure("stop", err), 0)
		c.mu.Unlock()
		c.publish()
		return fmt.Errorf("stop camera: %w", err)
	}
	c.camera = cameraStatus(CameraIdle, false)
	c.enterIdleLocked()
	c.mu.Unlock()

	logger.Info("Controller", "Camera stopped")
	c.obs.CameraRunning(false)
	c.publish()
	return nil
}

// RefreshStream rebinds the feed with a fresh cache buster. It reports false
// and does nothing when the camera is not running.
func (c *Controller) RefreshStream() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	c.videoSrc = camclient.VideoFeedURL(c.opts.Now().UnixMilli())
	c.streamFails = 0
	c.connection = connectionStatus(Connected)
	c.mu.Unlock()

	c.publish()
	return true
}

// StreamLoaded records that the video element loaded the feed.
func (c *Controller) StreamLoaded() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.streamFails = 0
	c.connection = connectionStatus(Connected)
	c.mu.Unlock()

	c.publish()
}

// StreamFailed records a video element load error. Reaching the failure
// threshold marks the connection as errored once per failure streak.
func (c *Controller) StreamFailed() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.streamFails++
	c.obs.StreamFailed()
	if c.streamFails == c.opts.StreamFailureThreshold {
		c.connection = connectionStatus(ConnError)
		c.notifyLocked(NoticeError, "Video stream disconnected. Try refreshing the stream.", c.opts.StreamErrorTimeout)
	}
	c.mu.Unlock()

	c.publish()
}

// FetchDetections is one poll: it fetches recent detections and applies them,
// unless the session changed while the request was in flight.
func (c *Controller) FetchDetections(ctx context.Context) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	epoch := c.epoch
	c.mu.Unlock()

	started := time.Now()
	data, err := c.api.RecentDetections(ctx)

	c.mu.Lock()
	if !c.running || c.epoch != epoch {
		c.mu.Unlock()
		logger.Debug("Poller", "Discarding stale poll result")
		return
	}

	if err != nil {
		c.pollFails++
		c.obs.PollFailed()
		logger.Debug("Poller", "Fetch failed (%d in a row): %v", c.pollFails, err)
		if c.pollFails == c.opts.PollFailureThreshold {
			logger.Warn("Poller", "%d consecutive poll failures, last: %v", c.pollFails, err)
			c.connection = connectionStatus(ConnError)
			c.notifyLocked(NoticeError, "Connection to server lost. Try refreshing the stream.", 0)
		}
		c.mu.Unlock()
		c.publish()
		return
	}

	c.obs.PollSucceeded(time.Since(started))
	if c.pollFails >= c.opts.PollFailureThreshold {
		c.connection = connectionStatus(Connected)
	}
	c.pollFails = 0

	if !data.CameraRunning {
		c.camera = cameraStatus(CameraIdle, false)
		c.enterIdleLocked()
		c.notifyLocked(NoticeInfo, "Camera stopped unexpectedly. Check the connection.", 0)
		c.mu.Unlock()

		logger.Warn("Controller", "Backend reports camera stopped, switching to idle")
		c.obs.CameraRunning(false)
		c.publish()
		return
	}

	c.applySnapshotLocked(data)
	c.mu.Unlock()
	c.publish()
}

// SetObjectFilter re-renders the cached object snapshot with f.
func (c *Controller) SetObjectFilter(f detection.ObjectFilter) {
	c.mu.Lock()
	c.objectFilter = f
	c.objectsView = c.renderer.Objects(c.objects, f)
	c.mu.Unlock()
	c.publish()
}

// SetFaceFilter re-renders the cached face snapshot with f.
func (c *Controller) SetFaceFilter(f detection.FaceFilter) {
	c.mu.Lock()
	c.faceFilter = f
	c.facesView = c.renderer.Faces(c.faces, f)
	c.mu.Unlock()
	c.publish()
}

// RequestClearObjects opens the Clear Objects confirmation.
func (c *Controller) RequestClearObjects() render.PromptView {
	return c.dialog.Request("Clear Objects", "Are you sure you want to clear all object detections?", func(context.Context) {
		c.mu.Lock()
		c.objects = nil
		c.objectsView = c.renderer.Objects(nil, c.objectFilter)
		c.mu.Unlock()
		c.publish()
	})
}

// RequestClearFaces opens the Clear Faces confirmation.
func (c *Controller) RequestClearFaces() render.PromptView {
	return c.dialog.Request("Clear Faces", "Are you sure you want to clear all face recognitions?", func(context.Context) {
		c.mu.Lock()
		c.faces = nil
		c.facesView = c.renderer.Faces(nil, c.faceFilter)
		c.mu.Unlock()
		c.publish()
	})
}

// RequestClearAlerts opens the Clear Alerts confirmation.
func (c *Controller) RequestClearAlerts() render.PromptView {
	return c.dialog.Request("Clear Alerts", "Are you sure you want to clear all alerts?", func(context.Context) {
		c.alerts.Clear()
		c.publish()
	})
}

// Confirm accepts the shown prompt.
func (c *Controller) Confirm(ctx context.Context, id string) error {
	return c.dialog.Accept(ctx, id)
}

// CancelConfirmation dismisses the shown prompt.
func (c *Controller) CancelConfirmation(id string) error {
	return c.dialog.Cancel(id)
}

// DismissNotification hides the banner.
func (c *Controller) DismissNotification() {
	c.mu.Lock()
	c.notification = nil
	c.mu.Unlock()
	c.publish()
}

// View returns a snapshot of the page state.
func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		Running:  c.running,
		Polling:  c.poller.Active(),
		Loading:  c.loading,
		Status:   render.StatusBarView{Camera: c.camera, Connection: c.connection},
		Controls: c.controls,
		VideoSrc: c.videoSrc,
		Objects:  c.objectsView,
		Faces:    c.facesView,
	}
	if c.notification != nil {
		n := *c.notification
		v.Notification = &n
	}
	c.mu.Unlock()

	v.Alerts = render.NewAlertsView(c.alerts.List())
	v.Confirmation = c.dialog.Current()
	return v
}

// Subscribe registers for change notifications. The channel holds at most one
// pending signal; receivers should re-read View.
func (c *Controller) Subscribe() (int, <-chan struct{}) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (c *Controller) Unsubscribe(id int) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if ch, ok := c.subs[id]; ok {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Controller) publish() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Controller) enterRunningLocked() {
	c.running = true
	c.epoch++
	c.streamFails = 0
	c.pollFails = 0
	c.camera = cameraStatus(CameraRunning, false)
	c.connection = connectionStatus(Connected)
	c.controls = Controls{StopEnabled: true, RefreshEnabled: true}
	c.videoSrc = camclient.VideoFeedURL(c.opts.Now().UnixMilli())
	c.poller.Start(c.baseCtx)
}

func (c *Controller) enterIdleLocked() {
	c.running = false
	c.epoch++
	c.connection = connectionStatus(Disconnected)
	c.controls = Controls{StartEnabled: true}
	c.videoSrc = PlaceholderPath
	c.poller.Stop()
}

func (c *Controller) applySnapshotLocked(data *detection.RecentDetections) {
	if len(data.Objects) > 0 {
		c.objects = data.Objects
	}
	if len(data.Faces) > 0 {
		c.faces = data.Faces
	}
	c.objectsView = c.renderer.Objects(c.objects, c.objectFilter)
	c.facesView = c.renderer.Faces(c.faces, c.faceFilter)
}

func (c *Controller) notifyLocked(kind, message string, timeout time.Duration) {
	c.noticeSeq++
	seq := c.noticeSeq
	c.notification = &render.NotificationView{Kind: kind, Message: message}

	if kind == NoticeError {
		logger.Warn("Controller", "%s", message)
	} else {
		logger.Info("Controller", "%s", message)
	}

	if timeout > 0 {
		time.AfterFunc(timeout, func() {
			c.mu.Lock()
			expired := c.noticeSeq == seq
			if expired {
				c.notification = nil
			}
			c.mu.Unlock()
			if expired {
				c.publish()
			}
		})
	}
}

func commandFailure(command string, err error) string {
	var cmdErr *camclient.CommandError
	if errors.As(err, &cmdErr) {
		return fmt.Sprintf("Failed to %s camera: %s", command, cmdErr.Error())
	}
	return "Connection failed: " + err.Error()
}
