package events

import (
	"context"
	"errors"
)

var ErrBusFull = errors.New("events: ingress bus full")

// Bus is the single ingress queue event producers publish onto, and the
// Manager's dispatch loop drains from. cmd/obsw creates one and runs the
// Manager on it; no code in this module calls Publish. It plays the role of
// the mpsc channel pairing an EventReceiver with its Sender half in the
// reference design, collapsed into one type since Go channels are already
// both ends of that pairing.
type Bus struct {
	ch chan Delivery
}

func NewBus(capacity int) *Bus {
	return &Bus{ch: make(chan Delivery, capacity)}
}

// Publish enqueues an event for dispatch. Non-blocking: a full bus drops the
// event and reports it, rather than stalling whichever subsystem raised it.
func (b *Bus) Publish(event GenericEvent, aux *Params) error {
	select {
	case b.ch <- Delivery{Event: event, Aux: aux}:
		return nil
	default:
		return ErrBusFull
	}
}

// BlockingReceive waits for the next published event or ctx cancellation.
func (b *Bus) BlockingReceive(ctx context.Context) (GenericEvent, *Params, bool) {
	select {
	case d, ok := <-b.ch:
		if !ok {
			return nil, nil, false
		}
		return d.Event, d.Aux, true
	case <-ctx.Done():
		return nil, nil, false
	}
}
