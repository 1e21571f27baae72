package events

import (
	"context"
	"errors"
	"sync"

	"github.com/skyhaven-space/obsw/pkg/log"
)

// maxRouteErrors bounds how many per-sender failures TryHandleEvent reports
// for a single event. A broken listener shouldn't make every routing result
// balloon; three is enough to diagnose "which sender, what error" without
// unbounded piggybacked errors on a high fan-out event.
const maxRouteErrors = 3

// ErrNoSenderForID is recorded against a SenderID that is subscribed (it
// appears in single/group/all) but has no Sender registered via AddSender.
// Stale subscriptions left behind by a sender that deregistered without
// unsubscribing are a routing fault, not a silent no-op.
var ErrNoSenderForID = errors.New("events: no sender registered for id")

// RouteError pairs a failed delivery with the sender it was addressed to.
type RouteError struct {
	SenderID SenderID
	Err      error
}

// RouteResult summarizes one TryHandleEvent call.
type RouteResult struct {
	Delivered int
	Errors    []RouteError
}

// Manager owns the subscription tables and performs dispatch. All mutation
// (AddSender, SubscribeX, RemoveDuplicates) and TryHandleEvent are safe to
// call concurrently.
type Manager struct {
	mu sync.RWMutex

	senders map[SenderID]Sender
	single  map[uint32][]SenderID
	group   map[uint16][]SenderID
	all     []SenderID
}

func NewManager() *Manager {
	return &Manager{
		senders: make(map[SenderID]Sender),
		single:  make(map[uint32][]SenderID),
		group:   make(map[uint16][]SenderID),
	}
}

// AddSender registers a sender. Re-adding the same id replaces it.
func (m *Manager) AddSender(s Sender) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.senders[s.ID()] = s
}

// SubscribeSingle adds id as a listener for exactly this event. Repeat
// subscriptions accumulate — they are only collapsed by RemoveDuplicates,
// never rejected at subscribe time.
func (m *Manager) SubscribeSingle(id SenderID, event GenericEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := event.RawAsLargestType()
	m.single[key] = append(m.single[key], id)
}

// SubscribeGroup adds id as a listener for every event reporting groupID.
func (m *Manager) SubscribeGroup(id SenderID, groupID uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.group[groupID] = append(m.group[groupID], id)
}

// SubscribeAll adds id as a listener for every event routed through this
// manager, regardless of id or group.
func (m *Manager) SubscribeAll(id SenderID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = append(m.all, id)
}

// RemoveDuplicates collapses exact-duplicate listener entries in every
// subscription list. It does not change dispatch order for the surviving
// entries.
func (m *Manager) RemoveDuplicates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, ids := range m.single {
		m.single[k] = dedupeSenderIDs(ids)
	}
	for k, ids := range m.group {
		m.group[k] = dedupeSenderIDs(ids)
	}
	m.all = dedupeSenderIDs(m.all)
}

func dedupeSenderIDs(ids []SenderID) []SenderID {
	seen := make(map[SenderID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// TryHandleEvent dispatches event to every matching listener in fixed order:
// Single, then Group, then All. A sender registered under more than one
// matching key is invoked once per match, not deduplicated — matching the
// reference manager's "exception-like error piggybacking" design, each
// delivery is independent and a failure on one does not skip the rest.
func (m *Manager) TryHandleEvent(event GenericEvent, aux *Params) RouteResult {
	m.mu.RLock()
	ids := make([]SenderID, 0, 4)
	ids = append(ids, m.single[event.RawAsLargestType()]...)
	if ge, ok := event.(groupedEvent); ok {
		ids = append(ids, m.group[ge.GroupID()]...)
	}
	ids = append(ids, m.all...)
	targets := make([]Sender, len(ids))
	for i, id := range ids {
		targets[i] = m.senders[id]
	}
	m.mu.RUnlock()

	var result RouteResult
	for i, id := range ids {
		s := targets[i]
		if s == nil {
			if len(result.Errors) < maxRouteErrors {
				result.Errors = append(result.Errors, RouteError{SenderID: id, Err: ErrNoSenderForID})
			}
			continue
		}
		if err := s.Send(event, aux); err != nil {
			if len(result.Errors) < maxRouteErrors {
				result.Errors = append(result.Errors, RouteError{SenderID: id, Err: err})
			}
			continue
		}
		result.Delivered++
	}
	return result
}

// Run drains bus and calls TryHandleEvent for each published event until ctx
// is canceled or the bus is closed. This is the one goroutine in the process
// that owns event dispatch; everything else only publishes.
func (m *Manager) Run(ctx context.Context, bus *Bus) {
	for {
		event, aux, ok := bus.BlockingReceive(ctx)
		if !ok {
			return
		}
		res := m.TryHandleEvent(event, aux)
		for _, e := range res.Errors {
			log.Warnf("events: sender %d failed to handle event %#x: %v", e.SenderID, event.RawAsLargestType(), e.Err)
		}
	}
}
