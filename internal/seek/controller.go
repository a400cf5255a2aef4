// Package seek turns pointer positions over the waveform into media times.
package seek

import (
	"context"
	"fmt"
	"log/slog"

	"waveseek.click/internal/media"
	"waveseek.click/internal/notify"
	"waveseek.click/internal/playback"
)

// Rect is the waveform's bounding box on the horizontal axis, in client coordinates
type Rect struct {
	Left  float64
	Width float64
}

// TargetTime maps clientX to a time in [0, duration]
func TargetTime(clientX float64, rect Rect, duration float64) float64 {
	if rect.Width <= 0 || duration <= 0 {
		return 0
	}
	offset := clientX - rect.Left
	if offset < 0 {
		offset = 0
	}
	if offset > rect.Width {
		offset = rect.Width
	}
	return offset / rect.Width * duration
}

// Controller applies click, press and drag positions to the element, and
// computes hover times
type Controller struct {
	element  media.Element
	tracker  *playback.Tracker
	notifier notify.Notifier
}

// NewController creates a controller. A nil notifier discards notifications.
func NewController(element media.Element, tracker *playback.Tracker, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Controller{element: element, tracker: tracker, notifier: notifier}
}

// Interact seeks to the time under clientX, ahead of the buffered region if need
// be, and starts playback when it is not running. A failed start is reported to
// the user and does not disable the player.
func (c *Controller) Interact(ctx context.Context, clientX float64, rect Rect) error {
	target := TargetTime(clientX, rect, c.element.Duration())

	if err := c.element.SetCurrentTime(target); err != nil {
		slog.Warn("seek rejected", "target_s", target, "error", err)
		return fmt.Errorf("seek to %.3fs: %w", target, err)
	}

	slog.Debug("seeked", "target_s", target, "client_x", clientX)

	if c.tracker.State().IsPlaying {
		return nil
	}

	if err := c.tracker.Play(ctx); err != nil {
		c.notifier.Notify(notify.Notification{
			Level:   notify.Error,
			Message: "Could not start playback",
			Err:     err,
		})
		return err
	}
	return nil
}

// Hover returns the time under clientX when it lies in a buffered range, and
// current otherwise
func (c *Controller) Hover(clientX float64, rect Rect, current float64) float64 {
	target := TargetTime(clientX, rect, c.element.Duration())
	if !c.element.Buffered().Contains(target) {
		return current
	}
	return target
}
