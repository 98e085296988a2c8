package mock

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kiranshivaraju/playbook/pkg/models"
)

// MockProvider satisfies models.Generator for testing. It yields Chunks in
// order, sleeping Delay before each one, then returns Err if set.
type MockProvider struct {
	Name_  string
	Model_ string
	Chunks []string
	Delay  time.Duration
	Err    error
	// Block makes Stream wait for context cancellation before yielding anything.
	Block bool

	calls atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (m *MockProvider) Name() string  { return m.Name_ }
func (m *MockProvider) Model() string { return m.Model_ }

// Calls returns how many times Stream was invoked.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }

// Prompts returns every prompt passed to Stream, in call order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockProvider) Stream(ctx context.Context, req models.GenerateRequest) iter.Seq2[string, error] {
	m.calls.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()

	return func(yield func(string, error) bool) {
		if m.Block {
			<-ctx.Done()
			yield("", ctx.Err())
			return
		}
		for _, chunk := range m.Chunks {
			if m.Delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(m.Delay):
				}
			}
			if !yield(chunk, nil) {
				return
			}
		}
		if m.Err != nil {
			yield("", m.Err)
		}
	}
}

// NewMockProvider returns a MockProvider that streams a short canned report.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		Chunks: []string{
			"### 1. Your High-Impact Service Recommendation\n\n",
			"Lead with **SEO**.\n\n",
			"### 2. The Authority Blueprint\n\n",
			"- **Initial Action:** Get featured.\n",
			"- **Immediate Result:** Rank higher.\n",
		},
	}
}

// NewFailingProvider returns a MockProvider whose stream fails immediately with err.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{Name_: "mock-failing", Model_: "mock-v1", Err: err}
}

// NewTimeoutProvider returns a MockProvider that blocks until the context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{Name_: "mock-timeout", Model_: "mock-v1", Block: true}
}

// Compile-time check that MockProvider implements Generator.
var _ models.Generator = (*MockProvider)(nil)
