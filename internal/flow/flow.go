package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/powerm17/automated-home-decor/internal/render"
	"github.com/powerm17/automated-home-decor/internal/selector"
	"github.com/powerm17/automated-home-decor/internal/suggestions"
	"golang.org/x/sync/semaphore"
)

// Messages shown to the user.
const (
	MsgNoImageSelected = "Please select an image first"
	MsgUploadFailed    = "Error uploading image. Please try again."
	MsgUploaded        = "Image uploaded successfully!"
)

var (
	ErrNoImageSelected = errors.New("no image selected")
	// ErrUploadFailed deliberately carries no cause.
	ErrUploadFailed = errors.New("upload failed")
)

// Upload outcomes reported to an Observer.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
	OutcomeNoImage   = "no_image"
	OutcomeBusy      = "busy"
)

type Status int

const (
	Idle Status = iota
	ImageSelected
	Uploading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageSelected:
		return "image_selected"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the page's single UI state. Response is set only when Succeeded,
// Reason only when Failed.
type State struct {
	Status   Status
	Response *suggestions.Response
	Reason   string
}

// Uploader sends an image to the decor backend.
type Uploader interface {
	Upload(ctx context.Context, file selector.File) (*suggestions.Response, error)
}

// Observer receives one call per Upload invocation.
type Observer interface {
	ObserveUpload(outcome string, duration time.Duration)
}

type Notification struct {
	Message   string
	Duration  time.Duration
	ExpiresAt time.Time
}

// View is an immutable snapshot of a page for rendering.
type View struct {
	Variant      Variant
	State        State
	Image        *selector.SelectedImage
	Result       render.Result
	Notification *Notification
}

type Options struct {
	Uploader Uploader
	Previews selector.PreviewStore
	Variant  Variant
	Observer Observer
	Now      func() time.Time
}

// Flow is one page instance: select, upload, then render or fail.
type Flow struct {
	mu       sync.Mutex
	variant  Variant
	selector *selector.Selector
	uploader Uploader
	observer Observer
	now      func() time.Time

	// held for the whole network call; one upload in flight per page
	inflight *semaphore.Weighted

	state  State
	notice *Notification
}

func New(opts Options) *Flow {
	f := &Flow{
		variant:  opts.Variant,
		selector: selector.New(opts.Previews),
		uploader: opts.Uploader,
		observer: opts.Observer,
		now:      opts.Now,
		inflight: semaphore.NewWeighted(1),
	}
	if f.variant.Name == "" {
		f.variant = Standard
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// Select replaces the chosen image. A nil file is a no-op. An in-flight
// upload keeps running with the image it started with.
func (f *Flow) Select(file *selector.File) {
	if file == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.selector.Select(file)
	if f.state.Status != Uploading {
		f.state = State{Status: ImageSelected}
	}
}

// Upload posts the selected image and records the outcome. It returns
// ErrNoImageSelected without touching the network when nothing is selected,
// ErrUploadFailed for any backend problem, and nil when another upload is
// already in flight.
func (f *Flow) Upload(ctx context.Context) error {
	start := f.now()

	if !f.inflight.TryAcquire(1) {
		slog.Debug("Upload already in flight, ignoring trigger")
		f.observe(OutcomeBusy, 0)
		return nil
	}
	defer f.inflight.Release(1)

	f.mu.Lock()
	current, ok := f.selector.Current()
	if !ok {
		f.state = State{Status: Failed, Reason: MsgNoImageSelected}
		f.mu.Unlock()
		f.observe(OutcomeNoImage, 0)
		return ErrNoImageSelected
	}
	file := current.File
	f.state = State{Status: Uploading}
	f.notice = nil
	f.mu.Unlock()

	resp, err := f.uploader.Upload(ctx, file)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, suggestions.ErrMalformedResponse) {
			outcome = OutcomeMalformed
		}
		slog.Error("Error uploading image", "name", file.Name, "outcome", outcome, "err", err)
		f.state = State{Status: Failed, Reason: MsgUploadFailed}
		f.observe(outcome, f.now().Sub(start))
		return ErrUploadFailed
	}

	slog.Info("Image uploaded", "name", file.Name, "items", len(resp.Items), "colors", len(resp.ProminentColors))
	f.state = State{Status: Succeeded, Response: resp}
	if f.variant.NotifyOnSuccess {
		f.notice = &Notification{
			Message:   MsgUploaded,
			Duration:  f.variant.NotificationDuration,
			ExpiresAt: f.now().Add(f.variant.NotificationDuration),
		}
	}
	f.observe(OutcomeSuccess, f.now().Sub(start))
	return nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Selected returns a copy of the chosen image without consuming anything.
func (f *Flow) Selected() (*selector.SelectedImage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.selector.Current()
	if !ok {
		return nil, false
	}
	img := *current
	return &img, true
}

// View snapshots the page. A pending notification is handed out at most
// once and never after it has expired.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := View{
		Variant: f.variant,
		State:   f.state,
		Result:  render.Render(f.state.Response),
	}
	if current, ok := f.selector.Current(); ok {
		img := *current
		v.Image = &img
	}
	if f.notice != nil {
		if f.now().Before(f.notice.ExpiresAt) {
			n := *f.notice
			v.Notification = &n
		}
		f.notice = nil
	}
	return v
}

// Close tears the page down and releases its preview.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selector.Release()
	f.notice = nil
}

func (f *Flow) observe(outcome string, d time.Duration) {
	if f.observer != nil {
		f.observer.ObserveUpload(outcome, d)
	}
}
