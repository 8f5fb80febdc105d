package utils

import "context"

// MockRunner records calls and returns preconfigured responses.
// Set RunFn for per-call responses, otherwise Out/Err are returned.
type MockRunner struct {
	Bins  []string
	Calls [][]string
	Out   string
	Err   error
	RunFn func(bin string, args []string) (string, error)
}

func (m *MockRunner) Run(_ context.Context, bin string, args ...string) (string, error) {
	m.Bins = append(m.Bins, bin)
	m.Calls = append(m.Calls, args)
	if m.RunFn != nil {
		return m.RunFn(bin, args)
	}
	return m.Out, m.Err
}
