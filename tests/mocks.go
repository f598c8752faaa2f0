package tests

import (
	"context"
	"sync"
)

type mockAiClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (m *mockAiClient) GenerateResponse(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	response := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return response, nil
}
