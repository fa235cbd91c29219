package location

import (
	"context"

	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

// MockDevice is a mock implementation of service.DeviceLocator for testing.
type MockDevice struct {
	// Functions that can be set by tests to control behavior
	PermissionStatusFn  func(ctx context.Context) (service.PermissionStatus, error)
	RequestPermissionFn func(ctx context.Context) (service.PermissionStatus, error)
	CurrentPositionFn   func(ctx context.Context) (model.Position, error)
	LastKnownPositionFn func(ctx context.Context) (model.Position, error)

	// Call tracking
	PermissionStatusCalls  int
	RequestPermissionCalls int
	CurrentPositionCalls   int
	LastKnownPositionCalls int
}

// NewMockDevice creates a mock device that grants permission and returns a
// fixed position unless overridden.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// PermissionStatus implements service.DeviceLocator.
func (m *MockDevice) PermissionStatus(ctx context.Context) (service.PermissionStatus, error) {
	m.PermissionStatusCalls++
	if m.PermissionStatusFn != nil {
		return m.PermissionStatusFn(ctx)
	}
	return service.PermissionGranted, nil
}

// RequestPermission implements service.DeviceLocator.
func (m *MockDevice) RequestPermission(ctx context.Context) (service.PermissionStatus, error) {
	m.RequestPermissionCalls++
	if m.RequestPermissionFn != nil {
		return m.RequestPermissionFn(ctx)
	}
	return service.PermissionGranted, nil
}

// CurrentPosition implements service.DeviceLocator.
func (m *MockDevice) CurrentPosition(ctx context.Context) (model.Position, error) {
	m.CurrentPositionCalls++
	if m.CurrentPositionFn != nil {
		return m.CurrentPositionFn(ctx)
	}
	acc := 15.0
	return model.Position{Latitude: 1.3521, Longitude: 103.8198, Accuracy: &acc}, nil
}

// LastKnownPosition implements service.DeviceLocator.
func (m *MockDevice) LastKnownPosition(ctx context.Context) (model.Position, error) {
	m.LastKnownPositionCalls++
	if m.LastKnownPositionFn != nil {
		return m.LastKnownPositionFn(ctx)
	}
	return model.Position{}, context.DeadlineExceeded
}
