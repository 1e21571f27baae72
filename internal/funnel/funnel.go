// Package funnel implements the TM funnel: the single point every outgoing
// telemetry packet passes through before it leaves the process, where it
// gets its real CCSDS sequence count and PUS message count assigned and its
// CRC recomputed.
//
// Both counters are process-wide and shared across every originating
// service — a PUS[17,2] pong sitting between two PUS[1,*] verification
// reports still gets the next number in the same monotonic sequence, which
// is what lets a ground operator match an entire TC's TM trace by watching
// one incrementing counter regardless of which service produced each
// packet.
package funnel

import (
	"context"
	"fmt"

	"github.com/skyhaven-space/obsw/internal/metrics"
	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/pusframe"
	"github.com/skyhaven-space/obsw/internal/seqcount"
	"github.com/skyhaven-space/obsw/pkg/log"
)

var ErrFunnelFull = fmt.Errorf("funnel: ingress queue full")

// Egress is where a fully-rewritten TM frame goes once the funnel is done
// with it — typically the TCP TMTC server's per-connection outbound queue.
type Egress interface {
	Send(payload []byte) error
}

// Funnel serializes every outgoing TM through one goroutine (Run), which is
// what makes "assign the next sequence number" safe without a separate lock
// around the two counters.
type Funnel struct {
	pool   *pool.SharedPool
	apid   uint16
	egress Egress

	seqCounter *seqcount.Counter
	msgCounter *seqcount.Counter

	in chan pool.StoreAddr
}

func New(p *pool.SharedPool, apid uint16, egress Egress, bufSize int) *Funnel {
	return &Funnel{
		pool:       p,
		apid:       apid,
		egress:     egress,
		seqCounter: seqcount.New(),
		msgCounter: seqcount.New(),
		in:         make(chan pool.StoreAddr, bufSize),
	}
}

// Offer enqueues addr for sequencing and egress. Non-blocking: a full funnel
// reports ErrFunnelFull rather than stalling the caller (typically a
// verification reporter mid-TC-handling).
func (f *Funnel) Offer(addr pool.StoreAddr) error {
	select {
	case f.in <- addr:
		return nil
	default:
		return ErrFunnelFull
	}
}

// Run drains the funnel until ctx is canceled. It is the only goroutine
// that ever touches the shared counters, so ordering of arrivals on the
// channel is exactly the order counters get assigned.
func (f *Funnel) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case addr, ok := <-f.in:
			if !ok {
				return
			}
			if err := f.process(addr); err != nil {
				log.Warnf("funnel: %v", err)
			}
		}
	}
}

func (f *Funnel) process(addr pool.StoreAddr) error {
	var payload []byte
	err := f.pool.WithWrite(addr, false, func(data []byte) error {
		seq := uint16(f.seqCounter.FetchThenIncrement())
		msg := uint16(f.msgCounter.FetchThenIncrement())
		if err := pusframe.RewriteSeqAndMsgCount(data, f.apid, seq, msg); err != nil {
			return err
		}
		payload = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		_ = f.pool.Free(addr)
		return fmt.Errorf("rewrite: %w", err)
	}
	if err := f.pool.Free(addr); err != nil {
		log.Warnf("funnel: free after rewrite: %v", err)
	}
	if err := f.egress.Send(payload); err != nil {
		return err
	}
	metrics.TmSent.Inc()
	return nil
}
