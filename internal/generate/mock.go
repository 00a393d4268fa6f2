package generate

import (
	"context"
	"sync"
	"time"
)

// Mock is a scripted generator for tests and offline use. Each call consumes
// the next scripted reply; once the script runs out the last reply repeats.
// Every request is recorded.
type Mock struct {
	mu      sync.Mutex
	replies []MockReply
	calls   []Request
}

// MockReply is one scripted outcome.
type MockReply struct {
	Text  string
	Err   error
	Delay time.Duration
}

// NewMock returns a generator that answers every call from replies. With no
// replies it returns an empty JSON object.
func NewMock(replies ...MockReply) *Mock {
	return &Mock{replies: replies}
}

// Name returns the provider name.
func (m *Mock) Name() string { return "mock" }

// Generate records req and plays back the next reply, honoring ctx during any delay.
func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	reply := MockReply{Text: "{}"}
	if n := len(m.replies); n > 0 {
		reply = m.replies[0]
		if n > 1 {
			m.replies = m.replies[1:]
		}
	}
	m.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if reply.Err != nil {
		return "", reply.Err
	}
	return reply.Text, nil
}

// Calls returns a copy of the recorded requests.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
