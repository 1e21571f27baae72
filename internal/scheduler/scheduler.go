// Package scheduler implements the time-ordered telecommand scheduler: a
// release time maps to the pool addresses of telecommands waiting to be
// injected back into the distributor once current_time reaches it.
package scheduler

import (
	"sort"
	"sync"

	"github.com/skyhaven-space/obsw/internal/pool"
)

// Scheduler holds pending telecommands keyed by unix release time. It is not
// a goroutine by itself — callers drive it by periodically calling
// UpdateTime and ReleaseDue from a dedicated tight loop, per spec: this
// needs to react the instant current_time crosses a release time, which a
// cron-style cadence cannot express.
type Scheduler struct {
	mu sync.Mutex

	tcMap      map[int64][]pool.StoreAddr
	keysSorted []int64

	currentTime int64
	margin      int64
	enabled     bool
}

// New creates a scheduler. margin bounds how far into the future a release
// time may be relative to currentTime at insert time — InsertTC rejects
// anything beyond currentTime+margin so a malformed or malicious release
// time can't sit unbounded in memory.
func New(currentTime int64, margin int64) *Scheduler {
	return &Scheduler{
		tcMap:       make(map[int64][]pool.StoreAddr),
		currentTime: currentTime,
		margin:      margin,
		enabled:     true,
	}
}

func (s *Scheduler) insertKeySorted(k int64) {
	i := sort.Search(len(s.keysSorted), func(i int) bool { return s.keysSorted[i] >= k })
	s.keysSorted = append(s.keysSorted, 0)
	copy(s.keysSorted[i+1:], s.keysSorted[i:])
	s.keysSorted[i] = k
}

// InsertTC schedules addr for release at releaseAt. Rejects (returns false,
// leaving addr untouched for the caller to free or report as a step
// failure) when releaseAt exceeds currentTime+margin.
func (s *Scheduler) InsertTC(releaseAt int64, addr pool.StoreAddr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if releaseAt > s.currentTime+s.margin {
		return false
	}
	if _, exists := s.tcMap[releaseAt]; !exists {
		s.insertKeySorted(releaseAt)
	}
	s.tcMap[releaseAt] = append(s.tcMap[releaseAt], addr)
	return true
}

// UpdateTime advances the scheduler's notion of current time. Does not by
// itself release anything — call ReleaseDue afterward.
func (s *Scheduler) UpdateTime(t int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTime = t
}

func (s *Scheduler) CurrentTime() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Enable/Disable/IsEnabled control the "enabled" flag independently of
// whether a release is due: a disabled scheduler still advances with
// UpdateTime and still accumulates due entries, it just never hands them to
// releaseFn with enabled=true, mirroring how PUS 11 subservices 1/2 are
// expected to interact with an otherwise-running scheduler.
func (s *Scheduler) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

func (s *Scheduler) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Reset disables the scheduler and discards every pending entry without
// freeing their pool slots — the caller is responsible for freeing each
// address Reset returns. Disabling means ReleaseDue hands later entries to
// releaseFn with enabled=false until a subsequent Enable; a reset scheduler
// is idle, not just empty.
func (s *Scheduler) Reset() []pool.StoreAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
	var addrs []pool.StoreAddr
	for _, k := range s.keysSorted {
		addrs = append(addrs, s.tcMap[k]...)
	}
	s.tcMap = make(map[int64][]pool.StoreAddr)
	s.keysSorted = nil
	return addrs
}

// NumScheduled reports how many telecommands are currently pending release.
func (s *Scheduler) NumScheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range s.keysSorted {
		n += len(s.tcMap[k])
	}
	return n
}

// ReleaseDue calls releaseFn once per pending address whose release time is
// at or before currentTime, in release-time order, then drops them from the
// scheduler. releaseFn must not call back into this Scheduler — ReleaseDue
// holds the scheduler's lock for the whole sweep.
func (s *Scheduler) ReleaseDue(releaseFn func(enabled bool, addr pool.StoreAddr)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cut := sort.Search(len(s.keysSorted), func(i int) bool { return s.keysSorted[i] > s.currentTime })
	for _, k := range s.keysSorted[:cut] {
		for _, addr := range s.tcMap[k] {
			releaseFn(s.enabled, addr)
		}
		delete(s.tcMap, k)
	}
	remaining := make([]int64, len(s.keysSorted)-cut)
	copy(remaining, s.keysSorted[cut:])
	s.keysSorted = remaining
}
