// Package signature runs the customer signature capture: the signature is
// drawn, then stamped with time and, when the device allows it, position
// and street address. Location problems never prevent the save.
package signature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"p9e.in/workorders/pkg/geocode"
	"p9e.in/workorders/pkg/workorder"
)

// TimestampLayout is how capture times are stored and printed.
const TimestampLayout = "02.01.2006. 15:04:05"

// LocateTimeout bounds the position lookup. Fixes older than this are stale.
const LocateTimeout = 10 * time.Second

var (
	ErrNothingDrawn   = errors.New("nothing drawn")
	ErrEmptyImage     = errors.New("empty signature image")
	ErrAlreadyCapture = errors.New("signature already captured")
)

// State of a Capture.
type State int

const (
	Idle State = iota
	Drawing
	Locating
	Geocoding
	Captured
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Locating:
		return "locating"
	case Geocoding:
		return "geocoding"
	case Captured:
		return "captured"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Locator reports the signer's position.
type Locator interface {
	Locate(ctx context.Context) (workorder.Coordinates, error)
}

// Geocoder turns a position into an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (geocode.Address, error)
}

// Result is what a successful Save produced.
type Result struct {
	Image    string                       `json:"image"`
	Metadata *workorder.SignatureMetadata `json:"metadata"`
	// Warning explains a missing location; it is informational only.
	Warning string `json:"warning,omitempty"`
}

// Capture is one signing session. Methods are safe for concurrent use but a
// capture is normally driven by a single request.
type Capture struct {
	locator  Locator
	geocoder Geocoder
	now      func() time.Time
	log      *slog.Logger

	mu     sync.Mutex
	state  State
	result *Result
}

// Option customizes a Capture.
type Option func(*Capture)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Capture) { c.now = now }
}

// WithLogger sets the logger for degraded captures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capture) { c.log = l }
}

// NewCapture starts an idle capture. A nil locator or geocoder skips that step.
func NewCapture(locator Locator, geocoder Geocoder, opts ...Option) *Capture {
	c := &Capture{
		locator:  locator,
		geocoder: geocoder,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the saved result, or nil before Save succeeded.
func (c *Capture) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Stroke records that the signer drew something.
func (c *Capture) Stroke() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Idle {
		c.state = Drawing
	}
}

// Clear wipes the pad and any saved result.
func (c *Capture) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.result = nil
}

func (c *Capture) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Save stamps image with the capture time and whatever location could be
// determined. It fails only when nothing was drawn.
func (c *Capture) Save(ctx context.Context, image string) (*Result, error) {
	c.mu.Lock()
	switch c.state {
	case Idle:
		c.mu.Unlock()
		return nil, ErrNothingDrawn
	case Drawing:
	default:
		c.mu.Unlock()
		return nil, ErrAlreadyCapture
	}
	if image == "" {
		c.mu.Unlock()
		return nil, ErrEmptyImage
	}
	c.state = Locating
	c.mu.Unlock()

	res := &Result{Image: image, Metadata: &workorder.SignatureMetadata{}}

	coords, err := c.locate(ctx)
	if err != nil {
		res.Warning = warningFor(err)
		c.log.Info("signature saved without location", "reason", err)
	} else {
		res.Metadata.Coordinates = &coords
		if c.geocoder != nil {
			c.setState(Geocoding)
			addr, err := c.geocoder.Reverse(ctx, coords.Latitude, coords.Longitude)
			if err != nil {
				c.log.Info("signature saved without address", "reason", err)
			} else {
				res.Metadata.Address = addr.String()
			}
		}
	}
	res.Metadata.Timestamp = c.now().Format(TimestampLayout)

	c.mu.Lock()
	c.state = Captured
	c.result = res
	c.mu.Unlock()
	return res, nil
}

func (c *Capture) locate(ctx context.Context) (workorder.Coordinates, error) {
	if c.locator == nil {
		return workorder.Coordinates{}, ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, LocateTimeout)
	defer cancel()
	coords, err := c.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return workorder.Coordinates{}, ErrTimeout
		}
		return workorder.Coordinates{}, err
	}
	return coords, nil
}
