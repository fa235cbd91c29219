package location

import (
	"context"
	"time"

	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

// SimulatedDevice is a config-driven service.DeviceLocator for running the
// flow on hosts without a positioning stack. It always grants permission and
// reports a fixed coordinate after an optional artificial delay.
type SimulatedDevice struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	FixDelay  time.Duration
}

// PermissionStatus implements service.DeviceLocator.
func (d *SimulatedDevice) PermissionStatus(_ context.Context) (service.PermissionStatus, error) {
	return service.PermissionGranted, nil
}

// RequestPermission implements service.DeviceLocator.
func (d *SimulatedDevice) RequestPermission(_ context.Context) (service.PermissionStatus, error) {
	return service.PermissionGranted, nil
}

// CurrentPosition implements service.DeviceLocator.
func (d *SimulatedDevice) CurrentPosition(ctx context.Context) (model.Position, error) {
	if d.FixDelay > 0 {
		select {
		case <-ctx.Done():
			return model.Position{}, ctx.Err()
		case <-time.After(d.FixDelay):
		}
	}
	acc := d.Accuracy
	return model.Position{
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		Accuracy:   &acc,
		CapturedAt: time.Now(),
	}, nil
}

// LastKnownPosition implements service.DeviceLocator.
func (d *SimulatedDevice) LastKnownPosition(ctx context.Context) (model.Position, error) {
	return d.CurrentPosition(ctx)
}
