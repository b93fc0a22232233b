package utils

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

// GoroutineLeakDetector fails a test when goroutines started during it are
// still running at the end. Servers and dialers in this module must leave
// nothing behind once Serve has returned and connections are closed.
type GoroutineLeakDetector struct {
	t             testing.TB
	initialCount  int
	allowedGrowth int
	settleTimeout time.Duration
	pollInterval  time.Duration
	filter        string
}

// NewGoroutineLeakDetector creates a new goroutine leak detector
func NewGoroutineLeakDetector(t testing.TB) *GoroutineLeakDetector {
	return &GoroutineLeakDetector{
		t:             t,
		settleTimeout: 2 * time.Second,
		pollInterval:  20 * time.Millisecond,
	}
}

// SetAllowedGrowth sets the number of goroutines allowed to grow
func (d *GoroutineLeakDetector) SetAllowedGrowth(n int) *GoroutineLeakDetector {
	d.allowedGrowth = n
	return d
}

// SetSettleTimeout bounds how long Check waits for goroutines to exit
func (d *GoroutineLeakDetector) SetSettleTimeout(timeout time.Duration) *GoroutineLeakDetector {
	d.settleTimeout = timeout
	return d
}

// SetStackFilter limits the dumped stacks to goroutines mentioning substr.
func (d *GoroutineLeakDetector) SetStackFilter(substr string) *GoroutineLeakDetector {
	d.filter = substr
	return d
}

// Start records the initial goroutine count
func (d *GoroutineLeakDetector) Start() {
	d.initialCount = runtime.NumGoroutine()
}

// Check polls until the goroutine count returns to the starting level or
// the settle timeout expires, then reports any growth.
func (d *GoroutineLeakDetector) Check() {
	d.t.Helper()

	deadline := time.Now().Add(d.settleTimeout)
	count := runtime.NumGoroutine()
	for count-d.initialCount > d.allowedGrowth && time.Now().Before(deadline) {
		time.Sleep(d.pollInterval)
		count = runtime.NumGoroutine()
	}

	leaked := count - d.initialCount
	if leaked <= d.allowedGrowth {
		return
	}
	d.t.Errorf("goroutine leak: started with %d, ended with %d (leaked %d, allowed %d)",
		d.initialCount, count, leaked, d.allowedGrowth)
	d.t.Logf("goroutines:\n%s", d.stacks())
}

// Guard starts the detector and schedules Check at test cleanup.
func (d *GoroutineLeakDetector) Guard() {
	d.Start()
	d.t.Cleanup(d.Check)
}

func (d *GoroutineLeakDetector) stacks() string {
	buf := make([]byte, 1<<20)
	dump := string(buf[:runtime.Stack(buf, true)])
	if d.filter == "" {
		return dump
	}
	var kept []string
	for _, g := range strings.Split(dump, "\n\n") {
		if strings.Contains(g, d.filter) {
			kept = append(kept, g)
		}
	}
	return strings.Join(kept, "\n\n")
}
