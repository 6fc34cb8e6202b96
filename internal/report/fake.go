package report

import "sync"

// Recorder records reports for test assertions.
type Recorder struct {
	// Err, if set, is returned by Report and nothing is recorded.
	Err error

	mu      sync.Mutex
	reports []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report records text.
func (r *Recorder) Report(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.reports = append(r.reports, text)
	return nil
}

// Reports returns a copy of everything recorded.
func (r *Recorder) Reports() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reports...)
}

// Reset clears recorded reports.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.reports = nil
	r.mu.Unlock()
}
