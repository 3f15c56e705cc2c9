// Package zone implements the detection-zone workflow: freeze a still from the live
// feed, draw a rectangle on it, pick the active hours and save both to the camera.
package zone

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"guardly-cli/pkg/models"
)

var (
	ErrNoFrame      = errors.New("zone: no frame received yet")
	ErrNoStill      = errors.New("zone: capture a still before drawing")
	ErrNoRect       = errors.New("zone: draw a zone before saving")
	ErrOutsideStill = errors.New("zone: rectangle lies outside the still")
)

// FrameSource is the part of a live feed the configurator drives.
type FrameSource interface {
	LastFrame() []byte
	Freeze()
	Unfreeze()
}

type CameraAPI interface {
	GetCamera(ctx context.Context, id int64) (*models.Camera, error)
	UpdateCamera(ctx context.Context, id int64, in models.CameraInput) (*models.Camera, error)
}

// Tick is one labelled mark of the hour slider.
type Tick struct {
	Value int
	Label string
}

// Ticks returns the labelled marks of the 0..24 slider.
func Ticks() []Tick {
	return []Tick{{0, "00:00"}, {12, "12:00"}, {24, "24:00"}}
}

// View is a consistent copy of the configurator state for rendering.
type View struct {
	CameraID int64
	Captured bool
	StillURL string
	Width    int
	Height   int
	Rect     *models.Rect
	Hours    models.TimeRange
}

// Configurator holds one operator's in-progress zone for one camera. It is safe for
// concurrent use; the dashboard shares one between the page and its still handler.
type Configurator struct {
	cameraID int64
	api      CameraAPI
	feed     FrameSource

	mu       sync.Mutex
	scaler   scaler
	stillPNG []byte
	size     image.Point
	rect     *models.Rect
	hours    models.TimeRange
}

func New(cameraID int64, api CameraAPI, feed FrameSource) *Configurator {
	return &Configurator{cameraID: cameraID, api: api, feed: feed, hours: models.FullDay}
}

func (c *Configurator) CameraID() int64 { return c.cameraID }

// Load pre-fills the still, rectangle and hours from what the camera already stores.
// A stored free-hand zone keeps its hours; its strokes cannot be edited here.
func (c *Configurator) Load(ctx context.Context) error {
	cam, err := c.api.GetCamera(ctx, c.cameraID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cam.CapturedImage != "" {
		raw, size, err := fromDataURL(cam.CapturedImage)
		if err != nil {
			return fmt.Errorf("camera %d stored still: %w", c.cameraID, err)
		}
		c.stillPNG, c.size = raw, size
	}
	if z := cam.DetectionZone; z != nil && z.Shape != models.ShapeNone {
		c.hours = z.Hours
		if z.Rect != nil {
			r := *z.Rect
			c.rect = &r
		}
	}
	return nil
}

// Capture takes the feed's current frame as the still and freezes the feed.
func (c *Configurator) Capture() error {
	frame := c.feed.LastFrame()
	if len(frame) == 0 {
		return ErrNoFrame
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	still, size, err := c.scaler.still(frame)
	if err != nil {
		return err
	}
	c.stillPNG, c.size = still, size
	c.rect = nil
	c.feed.Freeze()
	return nil
}

// SetRect places the zone; it must lie inside the still.
func (c *Configurator) SetRect(r models.Rect) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stillPNG == nil {
		return ErrNoStill
	}
	if r.Empty() {
		return fmt.Errorf("%w: rectangle has no area", models.ErrInvalidZone)
	}
	if !r.Within(c.size.X, c.size.Y) {
		return fmt.Errorf("%w: %dx%d at %d,%d on a %dx%d still",
			ErrOutsideStill, r.Width, r.Height, r.X, r.Y, c.size.X, c.size.Y)
	}
	c.rect = &r
	return nil
}

func (c *Configurator) SetTimeRange(tr models.TimeRange) error {
	if err := tr.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.hours = tr
	c.mu.Unlock()
	return nil
}

// Reset discards the still and the rectangle and resumes the feed. Hours are kept.
func (c *Configurator) Reset() {
	c.mu.Lock()
	c.stillPNG = nil
	c.size = image.Point{}
	c.rect = nil
	c.mu.Unlock()
	c.feed.Unfreeze()
}

// Still returns the PNG bytes of the current still, or nil.
func (c *Configurator) Still() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stillPNG
}

func (c *Configurator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		CameraID: c.cameraID,
		Captured: c.stillPNG != nil,
		Width:    c.size.X,
		Height:   c.size.Y,
		Hours:    c.hours,
	}
	if c.stillPNG != nil {
		v.StillURL = toDataURL(c.stillPNG)
	}
	if c.rect != nil {
		r := *c.rect
		v.Rect = &r
	}
	return v
}

// Save writes the zone, hours and still in one update. The camera is fetched first and
// only the zone fields are replaced, so concurrent edits to other fields survive.
func (c *Configurator) Save(ctx context.Context) (*models.Camera, error) {
	c.mu.Lock()
	if c.rect == nil {
		c.mu.Unlock()
		return nil, ErrNoRect
	}
	zone := models.NewRectZone(*c.rect, c.hours)
	var still string
	if c.stillPNG != nil {
		still = toDataURL(c.stillPNG)
	}
	c.mu.Unlock()

	if err := zone.Validate(); err != nil {
		return nil, err
	}

	current, err := c.api.GetCamera(ctx, c.cameraID)
	if err != nil {
		return nil, fmt.Errorf("reload camera %d: %w", c.cameraID, err)
	}
	in := current.Input()
	in.DetectionZone = zone
	if still != "" {
		in.CapturedImage = still
	}
	return c.api.UpdateCamera(ctx, c.cameraID, in)
}
