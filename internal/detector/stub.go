package detector

import (
	"context"
	"sync"
)

// Stub is a deterministic Detector for tests and for running the service
// without cloud credentials. Results are dequeued one batch per call.
type Stub struct {
	mu      sync.Mutex
	batches [][]string
	err     error

	Calls int
}

func NewStub() *Stub {
	return &Stub{}
}

// Enqueue appends one batch that a future Detect call will return.
func (s *Stub) Enqueue(plates ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, plates)
}

// Fail makes every subsequent Detect call return err until reset with nil.
func (s *Stub) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Stub) Detect(ctx context.Context, imageData []byte) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}
