package scanner

import "sync"

// Progress is a point-in-time snapshot of a running scan, safe to hand
// straight to JSON encoders.
type Progress struct {
	Percentage  float64 `json:"percentage"`
	CurrentFile string  `json:"current_file"`
	Current     int     `json:"current"`
	Total       int     `json:"total"`
	Failed      int     `json:"failed"`
	Message     string  `json:"message,omitempty"`
}

// ProgressSink receives progress callbacks from a running scan.
type ProgressSink interface {
	Update(percentage float64, currentFile string, current, total int)
	AddFailed(n int)
	Fail(message string)
}

// Reporter tracks scan progress under a monotonic rule: once reported,
// the percentage never moves backwards until the next Reset. Updates
// arriving out of order (worker goroutines, retries) are dropped rather
// than shown as regressions.
type Reporter struct {
	mu   sync.RWMutex
	snap Progress
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Reset clears all state at the start of a new scan.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = Progress{}
}

// Update applies a progress update unless its percentage would move the
// display backwards. A zero percentage is always accepted so Reset-like
// restarts show immediately. Values are clamped to [0, 100].
func (r *Reporter) Update(percentage float64, currentFile string, current, total int) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if percentage != 0 && percentage < r.snap.Percentage {
		return
	}
	r.snap.Percentage = percentage
	r.snap.CurrentFile = currentFile
	r.snap.Current = current
	r.snap.Total = total
}

// AddFailed bumps the failed-file counter without touching progress.
func (r *Reporter) AddFailed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Failed += n
}

// Fail records a terminal failure message, keeping the last position.
func (r *Reporter) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Message = message
}

// Read returns the current snapshot.
func (r *Reporter) Read() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}
