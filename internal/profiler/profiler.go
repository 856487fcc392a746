// Package profiler times detection pipeline stages and tallies
// per-candidate rejection counts, generalizing the teacher's named-timer
// convention into a per-call profile the Detector can optionally expose
// when debug mode is on.
package profiler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aprilgo/apriltag/internal/aterrors"
)

// stageTiming records one named stage's elapsed time.
type stageTiming struct {
	name     string
	duration time.Duration
}

// Profile accumulates stage timings and reject counts across one detect
// call. Safe for concurrent use from worker goroutines; call Merge to
// fold a worker-local Profile into the owning call's Profile.
type Profile struct {
	mu       sync.Mutex
	stages   []stageTiming
	rejects  map[aterrors.RejectReason]int
}

// New returns an empty Profile.
func New() *Profile {
	return &Profile{rejects: make(map[aterrors.RejectReason]int)}
}

// Start begins timing a named stage; call the returned function when the
// stage completes.
func (p *Profile) Start(name string) func() {
	t0 := time.Now()
	return func() {
		d := time.Since(t0)
		p.mu.Lock()
		p.stages = append(p.stages, stageTiming{name: name, duration: d})
		p.mu.Unlock()
	}
}

// CountReject tallies one rejection of the given reason.
func (p *Profile) CountReject(reason aterrors.RejectReason) {
	p.mu.Lock()
	p.rejects[reason]++
	p.mu.Unlock()
}

// Merge folds other's stage timings and reject counts into p. Intended
// for combining per-worker profiles into the detector-level profile
// after a stripe-parallel stage completes.
func (p *Profile) Merge(other *Profile) {
	if other == nil {
		return
	}
	other.mu.Lock()
	stages := append([]stageTiming(nil), other.stages...)
	rejects := make(map[aterrors.RejectReason]int, len(other.rejects))
	for k, v := range other.rejects {
		rejects[k] = v
	}
	other.mu.Unlock()

	p.mu.Lock()
	p.stages = append(p.stages, stages...)
	for k, v := range rejects {
		p.rejects[k] += v
	}
	p.mu.Unlock()
}

// Total returns the summed duration of all recorded stages sharing name.
func (p *Profile) Total(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var total time.Duration
	for _, s := range p.stages {
		if s.name == name {
			total += s.duration
		}
	}
	return total
}

// RejectCount returns how many candidates were dropped for reason.
func (p *Profile) RejectCount(reason aterrors.RejectReason) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rejects[reason]
}

// String renders a human-readable summary, used by debug logging.
func (p *Profile) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b strings.Builder
	for _, s := range p.stages {
		fmt.Fprintf(&b, "%s: %v\n", s.name, s.duration)
	}
	for reason, count := range p.rejects {
		fmt.Fprintf(&b, "reject[%s]: %d\n", reason, count)
	}
	return b.String()
}
