package signature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"p9e.in/workorders/pkg/workorder"
	"p9e.in/workorders/utils"
)

// Reasons a position is unavailable.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrTimeout          = errors.New("location timed out")
	ErrUnsupported      = errors.New("location not supported")
	ErrStale            = errors.New("location fix is stale")
	ErrInvalidPosition  = errors.New("invalid position")
)

// Failure codes as sent by the browser.
const (
	FailurePermissionDenied = "permission_denied"
	FailureTimeout          = "timeout"
	FailureUnsupported      = "unsupported"
	FailureUnavailable      = "position_unavailable"
)

// Position is what the browser reported at signing time: either a fix or the
// reason there is none.
type Position struct {
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	FixedAt   time.Time `json:"fixedAt,omitempty"`
	Failure   string    `json:"failure,omitempty"`
}

// ClientLocator serves the position the browser already determined.
type ClientLocator struct {
	Position Position
	Now      func() time.Time
}

func (l ClientLocator) Locate(ctx context.Context) (workorder.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return workorder.Coordinates{}, err
	}
	p := l.Position
	switch p.Failure {
	case "":
	case FailurePermissionDenied:
		return workorder.Coordinates{}, ErrPermissionDenied
	case FailureTimeout:
		return workorder.Coordinates{}, ErrTimeout
	case FailureUnsupported:
		return workorder.Coordinates{}, ErrUnsupported
	default:
		return workorder.Coordinates{}, fmt.Errorf("%w: %s", ErrInvalidPosition, p.Failure)
	}
	if p.Latitude == nil || p.Longitude == nil {
		return workorder.Coordinates{}, ErrUnsupported
	}
	if !utils.ValidCoordinates(*p.Latitude, *p.Longitude) {
		return workorder.Coordinates{}, ErrInvalidPosition
	}
	if !p.FixedAt.IsZero() {
		now := time.Now
		if l.Now != nil {
			now = l.Now
		}
		if now().Sub(p.FixedAt) > LocateTimeout {
			return workorder.Coordinates{}, ErrStale
		}
	}
	return workorder.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}, nil
}

// warningFor turns a location error into the message shown next to the
// saved signature.
func warningFor(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Lokacija nije dopuštena; potpis je spremljen bez lokacije."
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrStale):
		return "Lokacija nije dohvaćena na vrijeme; potpis je spremljen bez lokacije."
	case errors.Is(err, ErrUnsupported):
		return "Uređaj ne podržava lokaciju; potpis je spremljen bez lokacije."
	}
	return "Lokacija nije dostupna; potpis je spremljen bez lokacije."
}
