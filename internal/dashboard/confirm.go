package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/render"
)

// ErrNoPendingConfirmation is returned when accepting or cancelling a prompt
// that is not the one currently shown.
var ErrNoPendingConfirmation = errors.New("no pending confirmation with that id")

// Dialog is a single-slot confirmation gate. Opening a prompt replaces any
// prompt already shown; there is no queue.
type Dialog struct {
	mu        sync.Mutex
	prompt    *render.PromptView
	onConfirm func(ctx context.Context)
	onChange  func()
}

// NewDialog returns a dialog that calls onChange whenever the modal is shown
// or hidden.
func NewDialog(onChange func()) *Dialog {
	return &Dialog{onChange: onChange}
}

// Request shows the modal and binds onConfirm to its accept button.
func (d *Dialog) Request(title, message string, onConfirm func(ctx context.Context)) render.PromptView {
	prompt := render.PromptView{ID: uuid.NewString(), Title: title, Message: message}

	d.mu.Lock()
	d.prompt = &prompt
	d.onConfirm = onConfirm
	d.mu.Unlock()

	d.changed()
	return prompt
}

// Accept hides the modal and runs the bound action.
func (d *Dialog) Accept(ctx context.Context, id string) error {
	action, err := d.take(id)
	if err != nil {
		return err
	}
	if action != nil {
		action(ctx)
	}
	return nil
}

// Cancel hides the modal without running the bound action.
func (d *Dialog) Cancel(id string) error {
	_, err := d.take(id)
	return err
}

// Current returns the shown prompt, or nil.
func (d *Dialog) Current() *render.PromptView {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.prompt == nil {
		return nil
	}
	p := *d.prompt
	return &p
}

func (d *Dialog) take(id string) (func(ctx context.Context), error) {
	d.mu.Lock()
	if d.prompt == nil || d.prompt.ID != id {
		d.mu.Unlock()
		return nil, ErrNoPendingConfirmation
	}
	action := d.onConfirm
	d.prompt = nil
	d.onConfirm = nil
	d.mu.Unlock()

	d.changed()
	return action, nil
}

func (d *Dialog) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}
