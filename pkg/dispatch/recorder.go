package dispatch

import (
	"context"
	"sync"
)

// Recorder is an in-memory Dispatcher that remembers every event in order.
// Tests substitute it for the job-queue-backed dispatcher.
type Recorder struct {
	mu       sync.Mutex
	progress []ProgressUpdate
	rebuilds []RebuildRequest
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Progress(_ context.Context, update ProgressUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, update)
	return nil
}

func (r *Recorder) RequestRebuild(_ context.Context, req RebuildRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuilds = append(r.rebuilds, req)
	return nil
}

func (r *Recorder) ProgressUpdates() []ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressUpdate(nil), r.progress...)
}

func (r *Recorder) RebuildRequests() []RebuildRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RebuildRequest(nil), r.rebuilds...)
}
