package signature

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(f float64) *float64 { return &f }

func TestClientLocator(t *testing.T) {
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name    string
		pos     Position
		wantErr error
	}{
		{"fresh fix", Position{Latitude: fp(45.8), Longitude: fp(15.9), FixedAt: now.Add(-2 * time.Second)}, nil},
		{"fix without time", Position{Latitude: fp(45.8), Longitude: fp(15.9)}, nil},
		{"stale fix", Position{Latitude: fp(45.8), Longitude: fp(15.9), FixedAt: now.Add(-time.Minute)}, ErrStale},
		{"denied", Position{Failure: FailurePermissionDenied}, ErrPermissionDenied},
		{"timeout", Position{Failure: FailureTimeout}, ErrTimeout},
		{"unsupported", Position{Failure: FailureUnsupported}, ErrUnsupported},
		{"unavailable", Position{Failure: FailureUnavailable}, ErrInvalidPosition},
		{"missing coordinates", Position{Latitude: fp(45.8)}, ErrUnsupported},
		{"out of range", Position{Latitude: fp(95), Longitude: fp(15.9)}, ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ClientLocator{Position: tt.pos, Now: clock}.Locate(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 45.8, c.Latitude)
			assert.Equal(t, 15.9, c.Longitude)
		})
	}
}

func TestWarningFor(t *testing.T) {
	assert.Contains(t, warningFor(ErrStale), "na vrijeme")
	assert.Contains(t, warningFor(ErrInvalidPosition), "nije dostupna")
}
