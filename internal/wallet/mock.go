package wallet

import "context"

// MockProbe is a mock implementation of Probe for testing.
type MockProbe struct {
	// Functions that can be set by tests to control behavior
	CanOpenFn func(ctx context.Context, url string) (bool, error)
	OpenFn    func(ctx context.Context, url string) error

	// Call tracking
	CanOpenCalls []string
	OpenCalls    []string
}

// NewMockProbe creates a new mock probe that reports the wallet installed.
func NewMockProbe() *MockProbe {
	return &MockProbe{}
}

// CanOpen implements Probe.
func (m *MockProbe) CanOpen(ctx context.Context, url string) (bool, error) {
	m.CanOpenCalls = append(m.CanOpenCalls, url)
	if m.CanOpenFn != nil {
		return m.CanOpenFn(ctx, url)
	}
	return true, nil
}

// Open implements Probe.
func (m *MockProbe) Open(ctx context.Context, url string) error {
	m.OpenCalls = append(m.OpenCalls, url)
	if m.OpenFn != nil {
		return m.OpenFn(ctx, url)
	}
	return nil
}
