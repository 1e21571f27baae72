package tmtcserver

import "errors"

// ErrQueueFull is returned by OutboundQueue.Send when the per-connection
// backlog is saturated — a ground link that cannot keep up with downlink
// volume, not a reason to block the funnel goroutine that is trying to hand
// it a packet.
var ErrQueueFull = errors.New("tmtcserver: outbound queue full")

// OutboundQueue bridges the funnel's push model (Offer/Send one packet at a
// time) to the server's pull model (TmFramer.Drain asking for the next one).
// It implements both funnel.Egress and TmPacketSource structurally, without
// either package importing the other.
type OutboundQueue struct {
	ch chan []byte
}

func NewOutboundQueue(capacity int) *OutboundQueue {
	return &OutboundQueue{ch: make(chan []byte, capacity)}
}

// Send implements funnel.Egress.
func (q *OutboundQueue) Send(payload []byte) error {
	select {
	case q.ch <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// NextTm implements TmPacketSource. It never blocks: Drain is called once
// per inner-loop tick, and an empty queue just means nothing to send yet.
func (q *OutboundQueue) NextTm() ([]byte, bool) {
	select {
	case payload := <-q.ch:
		return payload, true
	default:
		return nil, false
	}
}
