package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/alerts"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/camclient"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/detection"
)

type fakeCamera struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	recent   func(ctx context.Context) (*detection.RecentDetections, error)
	starts   int
	stops    int
	droidcam bool
}

func (f *fakeCamera) StartCamera(ctx context.Context, useDroidcam bool) (*detection.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.droidcam = useDroidcam
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &detection.CommandResult{Status: detection.StatusCameraStarted}, nil
}

func (f *fakeCamera) StopCamera(ctx context.Context) (*detection.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return &detection.CommandResult{Status: detection.StatusCameraStopped}, nil
}

func (f *fakeCamera) RecentDetections(ctx context.Context) (*detection.RecentDetections, error) {
	f.mu.Lock()
	fn := f.recent
	f.mu.Unlock()
	if fn == nil {
		return &detection.RecentDetections{CameraRunning: true}, nil
	}
	return fn(ctx)
}

func (f *fakeCamera) setRecent(fn func(ctx context.Context) (*detection.RecentDetections, error)) {
	f.mu.Lock()
	f.recent = fn
	f.mu.Unlock()
}

func running(objects []detection.DetectionEvent, faces []detection.FaceEvent) func(context.Context) (*detection.RecentDetections, error) {
	return func(context.Context) (*detection.RecentDetections, error) {
		return &detection.RecentDetections{CameraRunning: true, Objects: objects, Faces: faces}, nil
	}
}

func newTestController(t *testing.T, api CameraAPI) *Controller {
	t.Helper()
	c := New(api, Options{
		// The ticker never fires during a test; polls are driven by hand.
		PollInterval: time.Hour,
		Location:     time.UTC,
		Now:          func() time.Time { return time.UnixMilli(1700000000000) },
	})
	t.Cleanup(c.Close)
	return c
}

func startedController(t *testing.T, api *fakeCamera) *Controller {
	t.Helper()
	c := newTestController(t, api)
	if err := c.StartCamera(context.Background(), false); err != nil {
		t.Fatalf("StartCamera: %v", err)
	}
	return c
}

func TestInitialView(t *testing.T) {
	c := newTestController(t, &fakeCamera{})
	v := c.View()

	if v.Running || v.Polling || v.Loading {
		t.Fatalf("initial flags = %+v", v)
	}
	if v.Controls != (Controls{StartEnabled: true}) {
		t.Fatalf("controls = %+v", v.Controls)
	}
	if v.VideoSrc != PlaceholderPath {
		t.Fatalf("video src = %q", v.VideoSrc)
	}
	if v.Status.Camera.Text != CameraIdle || v.Status.Connection.Text != string(Disconnected) {
		t.Fatalf("status = %+v", v.Status)
	}
	if !v.Objects.Empty() || !v.Faces.Empty() || v.Alerts.Count != 0 {
		t.Fatal("expected empty lists")
	}
}

func TestStartCameraSuccess(t *testing.T) {
	api := &fakeCamera{}
	c := newTestController(t, api)

	if err := c.StartCamera(context.Background(), true); err != nil {
		t.Fatalf("StartCamera: %v", err)
	}
	if !api.droidcam {
		t.Fatal("use_droidcam not forwarded")
	}

	v := c.View()
	if !v.Running || !v.Polling || v.Loading {
		t.Fatalf("flags = running:%v polling:%v loading:%v", v.Running, v.Polling, v.Loading)
	}
	if v.Controls != (Controls{StopEnabled: true, RefreshEnabled: true}) {
		t.Fatalf("controls = %+v", v.Controls)
	}
	if v.VideoSrc != camclient.VideoFeedURL(1700000000000) {
		t.Fatalf("video src = %q", v.VideoSrc)
	}
	if v.Status.Camera.Text != CameraRunning || v.Status.Camera.Class != "active" {
		t.Fatalf("camera status = %+v", v.Status.Camera)
	}
	if v.Status.Connection.Text != string(Connected) {
		t.Fatalf("connection status = %+v", v.Status.Connection)
	}
}

func TestStartCameraFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rejected", &camclient.CommandError{Status: "error", Message: "Camera busy"}, "Failed to start camera: Camera busy"},
		{"rejected without message", &camclient.CommandError{Status: "error"}, "Failed to start camera: Unknown error"},
		{"http error", &camclient.HTTPError{StatusCode: 500}, "Connection failed: HTTP error! status: 500"},
		{"transport", errors.New("dial tcp: connection refused"), "Connection failed: dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, &fakeCamera{startErr: tt.err})

			if err := c.StartCamera(context.Background(), false); !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want wrapping %v", err, tt.err)
			}

			v := c.View()
			if v.Running || v.Polling || v.Loading {
				t.Fatalf("flags = running:%v polling:%v loading:%v", v.Running, v.Polling, v.Loading)
			}
			if !v.Controls.StartEnabled || v.Controls.StopEnabled {
				t.Fatalf("controls = %+v", v.Controls)
			}
			if v.Status.Camera.Text != CameraError || v.Status.Camera.Class != "error" {
				t.Fatalf("camera status = %+v", v.Status.Camera)
			}
			if v.Notification == nil || v.Notification.Message != tt.want {
				t.Fatalf("notification = %+v, want %q", v.Notification, tt.want)
			}
			if v.Notification.Kind != NoticeError {
				t.Fatalf("notification kind = %q", v.Notification.Kind)
			}
		})
	}
}

func TestStartCameraDisabledWhileRunning(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)

	if err := c.StartCamera(context.Background(), false); !errors.Is(err, ErrControlDisabled) {
		t.Fatalf("err = %v, want ErrControlDisabled", err)
	}
	if api.starts != 1 {
		t.Fatalf("backend starts = %d, want 1", api.starts)
	}
}

func TestStopCameraRequiresConfirmation(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)

	prompt, err := c.RequestStopCamera()
	if err != nil {
		t.Fatalf("RequestStopCamera: %v", err)
	}
	if prompt.Title != "Stop Camera" || prompt.Message != "Are you sure you want to stop the camera?" {
		t.Fatalf("prompt = %+v", prompt)
	}
	if got := c.View().Confirmation; got == nil || got.ID != prompt.ID {
		t.Fatalf("confirmation = %+v", got)
	}

	if err := c.CancelConfirmation(prompt.ID); err != nil {
		t.Fatalf("CancelConfirmation: %v", err)
	}
	if api.stops != 0 || !c.View().Running {
		t.Fatal("cancel must not stop the camera")
	}
	if c.View().Confirmation != nil {
		t.Fatal("modal still shown after cancel")
	}

	prompt, _ = c.RequestStopCamera()
	if err := c.Confirm(context.Background(), prompt.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if api.stops != 1 {
		t.Fatalf("backend stops = %d, want 1", api.stops)
	}

	v := c.View()
	if v.Running || v.Polling {
		t.Fatalf("flags = running:%v polling:%v", v.Running, v.Polling)
	}
	if v.Controls != (Controls{StartEnabled: true}) {
		t.Fatalf("controls = %+v", v.Controls)
	}
	if v.VideoSrc != PlaceholderPath {
		t.Fatalf("video src = %q", v.VideoSrc)
	}
	if v.Status.Camera.Text != CameraIdle || v.Status.Connection.Text != string(Disconnected) {
		t.Fatalf("status = %+v", v.Status)
	}
}

func TestStopCameraDisabledWhenIdle(t *testing.T) {
	c := newTestController(t, &fakeCamera{})
	if _, err := c.RequestStopCamera(); !errors.Is(err, ErrControlDisabled) {
		t.Fatalf("err = %v, want ErrControlDisabled", err)
	}
	if c.View().Confirmation != nil {
		t.Fatal("no prompt expected")
	}
}

func TestStopCameraFailureRestoresConnection(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.stopErr = &camclient.CommandError{Status: "error", Message: "device busy"}

	prompt, _ := c.RequestStopCamera()
	if err := c.Confirm(context.Background(), prompt.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	v := c.View()
	if !v.Running || !v.Polling {
		t.Fatal("camera should still be running after a failed stop")
	}
	if v.Status.Connection.Text != string(Connected) {
		t.Fatalf("connection = %+v, want restored", v.Status.Connection)
	}
	if v.Status.Camera.Text != CameraError {
		t.Fatalf("camera status = %+v", v.Status.Camera)
	}
	if v.Notification == nil || v.Notification.Message != "Failed to stop camera: device busy" {
		t.Fatalf("notification = %+v", v.Notification)
	}
}

func TestFetchDetectionsRendersSnapshot(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.setRecent(running(
		[]detection.DetectionEvent{{Timestamp: 1000, Objects: []detection.ObjectDetection{{Label: "person", Confidence: 0.93}}}},
		[]detection.FaceEvent{{Timestamp: 1001, Face: detection.FaceMatch{Name: detection.UnknownFace}}},
	))

	c.FetchDetections(context.Background())

	v := c.View()
	if v.Objects.Count != 1 || v.Faces.Count != 1 {
		t.Fatalf("counts = objects:%d faces:%d", v.Objects.Count, v.Faces.Count)
	}
	if v.Alerts.Count != 2 {
		t.Fatalf("alerts = %d, want 2", v.Alerts.Count)
	}
	if v.Alerts.Items[0].Title != alerts.TitleUnknownFace || v.Alerts.Items[1].Title != alerts.TitlePersonDetected {
		t.Fatalf("alert order = %+v", v.Alerts.Items)
	}
}

func TestFetchDetectionsEmptyArraysKeepCache(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.setRecent(running(
		[]detection.DetectionEvent{{Timestamp: 1000, Objects: []detection.ObjectDetection{{Label: "car", Confidence: 0.8}}}},
		nil,
	))
	c.FetchDetections(context.Background())

	api.setRecent(running(nil, nil))
	c.FetchDetections(context.Background())

	if got := c.View().Objects.Count; got != 1 {
		t.Fatalf("objects count = %d, want cached 1", got)
	}
}

func TestFilterSurvivesPolls(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.setRecent(running(
		[]detection.DetectionEvent{{Timestamp: 1000, Objects: []detection.ObjectDetection{
			{Label: "car", Confidence: 0.8},
			{Label: "dog", Confidence: 0.7},
			{Label: "cat", Confidence: 0.6},
		}}},
		nil,
	))
	c.FetchDetections(context.Background())

	c.SetObjectFilter(detection.ObjectsAnimal)
	if got := c.View().Objects.Count; got != 2 {
		t.Fatalf("animal count = %d, want 2", got)
	}

	c.FetchDetections(context.Background())
	v := c.View()
	if v.Objects.Filter != detection.ObjectsAnimal || v.Objects.Count != 2 {
		t.Fatalf("after poll: filter=%q count=%d", v.Objects.Filter, v.Objects.Count)
	}
}

func TestFaceFilter(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	score := 0.91
	api.setRecent(running(nil, []detection.FaceEvent{
		{Timestamp: 1000, Face: detection.FaceMatch{Name: "alice", Confidence: &score}},
		{Timestamp: 1001, Face: detection.FaceMatch{Name: detection.UnknownFace}},
		{Timestamp: 1002, Face: detection.FaceMatch{Name: detection.UnknownFace}},
	}))
	c.FetchDetections(context.Background())

	c.SetFaceFilter(detection.FacesUnknown)
	if got := c.View().Faces.Count; got != 2 {
		t.Fatalf("unknown count = %d, want 2", got)
	}
	c.SetFaceFilter(detection.FacesKnown)
	if got := c.View().Faces.Count; got != 1 {
		t.Fatalf("known count = %d, want 1", got)
	}
}

func TestDesyncSwitchesToIdle(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.setRecent(func(context.Context) (*detection.RecentDetections, error) {
		return &detection.RecentDetections{CameraRunning: false}, nil
	})

	c.FetchDetections(context.Background())

	v := c.View()
	if v.Running || v.Polling {
		t.Fatalf("flags = running:%v polling:%v", v.Running, v.Polling)
	}
	if v.Controls != (Controls{StartEnabled: true}) {
		t.Fatalf("controls = %+v", v.Controls)
	}
	if v.VideoSrc != PlaceholderPath {
		t.Fatalf("video src = %q", v.VideoSrc)
	}
	if v.Notification == nil || v.Notification.Kind != NoticeInfo {
		t.Fatalf("notification = %+v, want info notice", v.Notification)
	}
	if v.Confirmation != nil {
		t.Fatal("desync must not open a dialog")
	}
	if api.stops != 0 {
		t.Fatal("desync must not call stop")
	}
}

func TestStopConfirmationAfterDesyncIsDisabled(t *testing.T) {
	api := &fakeCamera{stopErr: errors.New("backend says not running")}
	c := startedController(t, api)

	p, err := c.RequestStopCamera()
	if err != nil {
		t.Fatalf("RequestStopCamera: %v", err)
	}
	api.setRecent(func(context.Context) (*detection.RecentDetections, error) {
		return &detection.RecentDetections{CameraRunning: false}, nil
	})
	c.FetchDetections(context.Background())
	before := c.View()

	if err := c.Confirm(context.Background(), p.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	v := c.View()
	if api.stops != 0 {
		t.Fatalf("stops = %d, want 0 on an idle dashboard", api.stops)
	}
	if v.Status != before.Status {
		t.Fatalf("status = %+v, want unchanged %+v", v.Status, before.Status)
	}
	if v.Status.Camera.Text != string(CameraIdle) {
		t.Fatalf("camera = %+v, want Idle", v.Status.Camera)
	}
	if v.Notification == nil || v.Notification.Kind != NoticeInfo {
		t.Fatalf("notification = %+v, want the desync notice", v.Notification)
	}
	if v.Confirmation != nil {
		t.Fatal("accepted prompt should be hidden")
	}
}

func TestPollFailureEscalation(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.setRecent(func(context.Context) (*detection.RecentDetections, error) {
		return nil, &camclient.HTTPError{StatusCode: 503}
	})

	for i := 0; i < 4; i++ {
		c.FetchDetections(context.Background())
	}
	v := c.View()
	if v.Status.Connection.Text != string(Connected) || v.Notification != nil {
		t.Fatalf("escalated too early: %+v %+v", v.Status.Connection, v.Notification)
	}

	c.FetchDetections(context.Background())
	v = c.View()
	if v.Status.Connection.Text != string(ConnError) {
		t.Fatalf("connection = %+v, want Error", v.Status.Connection)
	}
	if v.Notification == nil || v.Notification.Message != "Connection to server lost. Try refreshing the stream." {
		t.Fatalf("notification = %+v", v.Notification)
	}
	if !v.Running || !v.Polling {
		t.Fatal("polling must continue after escalation")
	}

	// Escalation fires once per streak.
	c.DismissNotification()
	for i := 0; i < 5; i++ {
		c.FetchDetections(context.Background())
	}
	if n := c.View().Notification; n != nil {
		t.Fatalf("notification after 10 failures = %+v, want none", n)
	}

	api.setRecent(running(nil, nil))
	c.FetchDetections(context.Background())
	if got := c.View().Status.Connection.Text; got != string(Connected) {
		t.Fatalf("connection after recovery = %q", got)
	}
}

func TestStreamFailureEscalation(t *testing.T) {
	c := New(&fakeCamera{}, Options{
		PollInterval:       time.Hour,
		Location:           time.UTC,
		StreamErrorTimeout: 20 * time.Millisecond,
	})
	t.Cleanup(c.Close)
	if err := c.StartCamera(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	c.StreamFailed()
	c.StreamFailed()
	if c.View().Notification != nil {
		t.Fatal("escalated before third failure")
	}
	c.StreamFailed()
	v := c.View()
	if v.Status.Connection.Text != string(ConnError) {
		t.Fatalf("connection = %+v", v.Status.Connection)
	}
	if v.Notification == nil || v.Notification.Message != "Video stream disconnected. Try refreshing the stream." {
		t.Fatalf("notification = %+v", v.Notification)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.View().Notification != nil {
		if time.Now().After(deadline) {
			t.Fatal("stream error notice did not auto-dismiss")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.StreamLoaded()
	if got := c.View().Status.Connection.Text; got != string(Connected) {
		t.Fatalf("connection after load = %q", got)
	}
}

func TestStreamFailedIgnoredWhenIdle(t *testing.T) {
	c := newTestController(t, &fakeCamera{})
	for i := 0; i < 5; i++ {
		c.StreamFailed()
	}
	if v := c.View(); v.Notification != nil || v.Status.Connection.Text != string(Disconnected) {
		t.Fatalf("idle stream errors changed state: %+v", v)
	}
}

func TestRefreshStream(t *testing.T) {
	c := newTestController(t, &fakeCamera{})
	if c.RefreshStream() {
		t.Fatal("refresh must be a no-op while idle")
	}

	now := int64(1700000000000)
	c.opts.Now = func() time.Time { now++; return time.UnixMilli(now) }
	if err := c.StartCamera(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	before := c.View().VideoSrc
	if !c.RefreshStream() {
		t.Fatal("refresh rejected while running")
	}
	after := c.View().VideoSrc
	if before == after || !strings.HasPrefix(after, camclient.PathVideoFeed+"?") {
		t.Fatalf("video src %q -> %q", before, after)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)

	api.setRecent(func(ctx context.Context) (*detection.RecentDetections, error) {
		// The session is stopped and restarted while this request is in flight.
		if err := c.stopCamera(ctx); err != nil {
			t.Errorf("stopCamera: %v", err)
		}
		api.setRecent(nil)
		if err := c.StartCamera(ctx, false); err != nil {
			t.Errorf("StartCamera: %v", err)
		}
		return &detection.RecentDetections{
			CameraRunning: true,
			Objects:       []detection.DetectionEvent{{Timestamp: 1000, Objects: []detection.ObjectDetection{{Label: "person", Confidence: 0.9}}}},
		}, nil
	})

	c.FetchDetections(context.Background())

	v := c.View()
	if !v.Objects.Empty() || v.Alerts.Count != 0 {
		t.Fatalf("stale response applied: objects=%d alerts=%d", v.Objects.Count, v.Alerts.Count)
	}
	if !v.Running {
		t.Fatal("restarted session should be running")
	}
}

func TestClearActions(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)
	api.setRecent(running(
		[]detection.DetectionEvent{{Timestamp: 1000, Objects: []detection.ObjectDetection{{Label: "person", Confidence: 0.9}}}},
		[]detection.FaceEvent{{Timestamp: 1000, Face: detection.FaceMatch{Name: detection.UnknownFace}}},
	))
	c.FetchDetections(context.Background())
	ctx := context.Background()

	p := c.RequestClearObjects()
	if p.Message != "Are you sure you want to clear all object detections?" {
		t.Fatalf("prompt = %+v", p)
	}
	if err := c.Confirm(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if !c.View().Objects.Empty() {
		t.Fatal("objects not cleared")
	}

	p = c.RequestClearFaces()
	if err := c.Confirm(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if !c.View().Faces.Empty() {
		t.Fatal("faces not cleared")
	}

	p = c.RequestClearAlerts()
	if err := c.CancelConfirmation(p.ID); err != nil {
		t.Fatal(err)
	}
	if c.View().Alerts.Count == 0 {
		t.Fatal("cancel must keep alerts")
	}
	p = c.RequestClearAlerts()
	if err := c.Confirm(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if c.View().Alerts.Count != 0 {
		t.Fatal("alerts not cleared")
	}
}

func TestAlertLogBounded(t *testing.T) {
	api := &fakeCamera{}
	c := startedController(t, api)

	var events []detection.DetectionEvent
	for i := 0; i < 20; i++ {
		events = append(events, detection.DetectionEvent{
			Timestamp: float64(1000 + i),
			Objects:   []detection.ObjectDetection{{Label: "person", Confidence: 0.9}},
		})
	}
	api.setRecent(running(events, nil))
	c.FetchDetections(context.Background())

	if got := c.View().Alerts.Count; got != alerts.DefaultCapacity {
		t.Fatalf("alerts = %d, want %d", got, alerts.DefaultCapacity)
	}
}

func TestDismissNotification(t *testing.T) {
	c := newTestController(t, &fakeCamera{startErr: errors.New("boom")})
	_ = c.StartCamera(context.Background(), false)
	if c.View().Notification == nil {
		t.Fatal("expected notification")
	}
	c.DismissNotification()
	if c.View().Notification != nil {
		t.Fatal("notification still shown")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	c := newTestController(t, &fakeCamera{})
	id, ch := c.Subscribe()

	c.SetObjectFilter(detection.ObjectsPerson)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal")
	}

	c.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

func TestResumeAdoptsRunningCamera(t *testing.T) {
	api := &fakeCamera{}
	api.setRecent(running(
		[]detection.DetectionEvent{{Timestamp: 1000, Objects: []detection.ObjectDetection{{Label: "dog", Confidence: 0.8}}}},
		nil,
	))
	c := newTestController(t, api)

	if err := c.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	v := c.View()
	if !v.Running || !v.Polling || v.Objects.Count != 1 {
		t.Fatalf("resume view = running:%v polling:%v objects:%d", v.Running, v.Polling, v.Objects.Count)
	}
	if api.starts != 0 {
		t.Fatal("resume must not start the camera")
	}
}

func TestResumeLeavesIdleCamera(t *testing.T) {
	api := &fakeCamera{}
	api.setRecent(func(context.Context) (*detection.RecentDetections, error) {
		return &detection.RecentDetections{CameraRunning: false}, nil
	})
	c := newTestController(t, api)

	if err := c.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if c.View().Running {
		t.Fatal("idle backend should leave the dashboard idle")
	}
}

func TestCameraCommandsAfterClose(t *testing.T) {
	api := &fakeCamera{}
	c := newTestController(t, api)
	c.Close()

	if err := c.StartCamera(context.Background(), false); !errors.Is(err, ErrClosed) {
		t.Fatalf("StartCamera err = %v, want ErrClosed", err)
	}
	if err := c.Resume(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Resume err = %v, want ErrClosed", err)
	}
	v := c.View()
	if v.Running || v.Polling {
		t.Fatalf("flags = running:%v polling:%v, want idle", v.Running, v.Polling)
	}
	if api.starts != 0 {
		t.Fatal("closed controller must not start the camera")
	}
}

type countingObserver struct {
	nopObserver
	mu      sync.Mutex
	failed  int
	alerted []string
}

func (o *countingObserver) PollFailed() {
	o.mu.Lock()
	o.failed++
	o.mu.Unlock()
}

func (o *countingObserver) AlertRaised(title string) {
	o.mu.Lock()
	o.alerted = append(o.alerted, title)
	o.mu.Unlock()
}

func TestObserverNotified(t *testing.T) {
	api := &fakeCamera{}
	obs := &countingObserver{}
	c := New(api, Options{PollInterval: time.Hour, Location: time.UTC, Observer: obs})
	t.Cleanup(c.Close)
	if err := c.StartCamera(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	api.setRecent(func(context.Context) (*detection.RecentDetections, error) { return nil, errors.New("down") })
	c.FetchDetections(context.Background())
	api.setRecent(running([]detection.DetectionEvent{{Timestamp: 1, Objects: []detection.ObjectDetection{{Label: "person", Confidence: 0.5}}}}, nil))
	c.FetchDetections(context.Background())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.failed != 1 {
		t.Fatalf("poll failures = %d, want 1", obs.failed)
	}
	if len(obs.alerted) != 1 || obs.alerted[0] != alerts.TitlePersonDetected {
		t.Fatalf("alerts = %v", obs.alerted)
	}
}
