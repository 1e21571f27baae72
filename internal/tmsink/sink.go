// Package tmsink is the one place a logical telemetry.TM becomes bytes in
// the packet pool and gets handed to the TM funnel. It is the concrete
// telemetry.Sender every verification reporter and the PUS event dispatcher
// is wired to in production.
package tmsink

import (
	"fmt"

	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/pusframe"
	"github.com/skyhaven-space/obsw/internal/telemetry"
)

// Funnel is the narrow interface tmsink needs from internal/funnel —
// accepting a pool address it no longer owns the content of. Declared here
// rather than importing the funnel package to keep the dependency pointing
// one way (funnel depends on pool and pusframe, not on tmsink).
type Funnel interface {
	Offer(addr pool.StoreAddr) error
}

// Sink implements telemetry.Sender.
type Sink struct {
	pool   *pool.SharedPool
	funnel Funnel
}

func New(p *pool.SharedPool, f Funnel) *Sink {
	return &Sink{pool: p, funnel: f}
}

func (s *Sink) Send(tm telemetry.TM) error {
	raw := pusframe.EncodeTM(tm.Apid, tm.Service, tm.Subservice, tm.DestID, tm.TimeStamp, tm.SourceData)
	addr, err := s.pool.Alloc(len(raw))
	if err != nil {
		return fmt.Errorf("tmsink: alloc %d bytes: %w", len(raw), err)
	}
	if err := s.pool.WriteBytes(addr, raw); err != nil {
		_ = s.pool.Free(addr)
		return fmt.Errorf("tmsink: write: %w", err)
	}
	if err := s.funnel.Offer(addr); err != nil {
		_ = s.pool.Free(addr)
		return fmt.Errorf("tmsink: offer to funnel: %w", err)
	}
	return nil
}

var _ telemetry.Sender = (*Sink)(nil)
