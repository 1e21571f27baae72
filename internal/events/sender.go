package events

import (
	"errors"
	"sync"
)

var ErrSenderQueueFull = errors.New("events: sender queue full")

// SenderID identifies a registered Sender the same way an ObjectId does in
// the rest of this module.
type SenderID uint32

// Delivery bundles an event with its auxiliary data for transport through a
// channel-backed Sender or the ingress Bus.
type Delivery struct {
	Event GenericEvent
	Aux   *Params
}

// Sender is anything the Manager can hand a routed event to.
type Sender interface {
	ID() SenderID
	Send(event GenericEvent, aux *Params) error
}

// ChannelSender forwards deliveries onto a buffered channel for a consumer
// goroutine to drain, dropping (rather than blocking the dispatching
// goroutine) when the channel is full.
type ChannelSender struct {
	id SenderID
	ch chan Delivery
}

func NewChannelSender(id SenderID, capacity int) *ChannelSender {
	return &ChannelSender{id: id, ch: make(chan Delivery, capacity)}
}

func (s *ChannelSender) ID() SenderID { return s.id }

func (s *ChannelSender) Send(event GenericEvent, aux *Params) error {
	select {
	case s.ch <- Delivery{Event: event, Aux: aux}:
		return nil
	default:
		return ErrSenderQueueFull
	}
}

func (s *ChannelSender) Receive() (Delivery, bool) {
	d, ok := <-s.ch
	return d, ok
}

// VecSender accumulates every delivery it receives in memory. Used in tests.
type VecSender struct {
	id SenderID

	mu         sync.Mutex
	deliveries []Delivery
}

func NewVecSender(id SenderID) *VecSender {
	return &VecSender{id: id}
}

func (s *VecSender) ID() SenderID { return s.id }

func (s *VecSender) Send(event GenericEvent, aux *Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, Delivery{Event: event, Aux: aux})
	return nil
}

func (s *VecSender) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivery(nil), s.deliveries...)
}
