package workqueue

import "sync"

// ConcurrencyStrategy controls how tasks are allowed to start concurrently.
// The strategy tracks running tasks and decides whether a new one may start.
// Full-scan tasks (validation over complete row sets) are the expensive kind;
// light tasks operate on fingerprint samples and are cheap.
type ConcurrencyStrategy interface {
	// CanStartFullScan reports whether a full-scan task can start now.
	CanStartFullScan() bool
	// CanStartLight reports whether a light task can start now.
	CanStartLight() bool
	// OnStartFullScan is called when a full-scan task starts.
	OnStartFullScan()
	// OnStartLight is called when a light task starts.
	OnStartLight()
	// OnCompleteFullScan is called when a full-scan task completes.
	OnCompleteFullScan()
	// OnCompleteLight is called when a light task completes.
	OnCompleteLight()
}

// SerializedStrategy runs one full-scan task and one light task at a time.
// A full-scan task and a light task may overlap.
type SerializedStrategy struct {
	mu              sync.Mutex
	fullScanRunning bool
	lightRunning    bool
}

// NewSerializedStrategy creates the default strategy: one full-scan task at a
// time, one light task at a time.
func NewSerializedStrategy() *SerializedStrategy {
	return &SerializedStrategy{}
}

func (s *SerializedStrategy) CanStartFullScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.fullScanRunning
}

func (s *SerializedStrategy) CanStartLight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lightRunning
}

func (s *SerializedStrategy) OnStartFullScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullScanRunning = true
}

func (s *SerializedStrategy) OnStartLight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightRunning = true
}

func (s *SerializedStrategy) OnCompleteFullScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullScanRunning = false
}

func (s *SerializedStrategy) OnCompleteLight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lightRunning = false
}

// ParallelLightStrategy allows unlimited parallel light tasks. Fingerprinting
// independent datasets shares no state, so running them together is safe.
// Full-scan tasks stay serialized.
type ParallelLightStrategy struct {
	mu              sync.Mutex
	fullScanRunning bool
}

// NewParallelLightStrategy creates a strategy with unlimited light tasks and
// serialized full-scan tasks.
func NewParallelLightStrategy() *ParallelLightStrategy {
	return &ParallelLightStrategy{}
}

func (s *ParallelLightStrategy) CanStartFullScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.fullScanRunning
}

func (s *ParallelLightStrategy) CanStartLight() bool {
	return true
}

func (s *ParallelLightStrategy) OnStartFullScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullScanRunning = true
}

func (s *ParallelLightStrategy) OnStartLight() {
	// Light tasks are not tracked.
}

func (s *ParallelLightStrategy) OnCompleteFullScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullScanRunning = false
}

func (s *ParallelLightStrategy) OnCompleteLight() {
	// Light tasks are not tracked.
}

// ThrottledFullScanStrategy allows up to maxConcurrent full-scan tasks in
// parallel. Light tasks run unthrottled.
type ThrottledFullScanStrategy struct {
	mu              sync.Mutex
	maxConcurrent   int
	fullScanRunning int
}

// NewThrottledFullScanStrategy creates a strategy allowing up to
// maxConcurrent parallel full-scan tasks.
func NewThrottledFullScanStrategy(maxConcurrent int) *ThrottledFullScanStrategy {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ThrottledFullScanStrategy{maxConcurrent: maxConcurrent}
}

func (s *ThrottledFullScanStrategy) CanStartFullScan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullScanRunning < s.maxConcurrent
}

func (s *ThrottledFullScanStrategy) CanStartLight() bool {
	return true
}

func (s *ThrottledFullScanStrategy) OnStartFullScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullScanRunning++
}

func (s *ThrottledFullScanStrategy) OnStartLight() {
	// Light tasks are not tracked.
}

func (s *ThrottledFullScanStrategy) OnCompleteFullScan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fullScanRunning > 0 {
		s.fullScanRunning--
	}
}

func (s *ThrottledFullScanStrategy) OnCompleteLight() {
	// Light tasks are not tracked.
}
