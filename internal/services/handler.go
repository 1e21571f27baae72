// Package services implements the per-PUS-service handler framework and the
// concrete PUS 17 (test), 5 (event control), 11 (scheduling) and 3/8
// (HK/action skeleton) handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/telemetry"
	"github.com/skyhaven-space/obsw/internal/verification"
	"github.com/skyhaven-space/obsw/pkg/log"
)

// Request is one accepted telecommand handed from the distributor to a
// service's Inbox.
type Request struct {
	Addr  pool.StoreAddr
	Token verification.Token[verification.StateAccepted]
}

var errQueueDisconnected = fmt.Errorf("services: inbox closed")

// Inbox is the mpsc-style channel a distributor.ServiceReceiver forwards
// into and a Handler's Run loop drains from.
type Inbox struct {
	ch     chan Request
	closed atomic.Bool
}

func NewInbox(capacity int) *Inbox {
	return &Inbox{ch: make(chan Request, capacity)}
}

func (ib *Inbox) Forward(addr pool.StoreAddr, token verification.Token[verification.StateAccepted]) error {
	if ib.closed.Load() {
		return errQueueDisconnected
	}
	ib.ch <- Request{Addr: addr, Token: token}
	return nil
}

func (ib *Inbox) receive() (Request, bool) {
	req, ok := <-ib.ch
	return req, ok
}

func (ib *Inbox) Close() {
	if ib.closed.CompareAndSwap(false, true) {
		close(ib.ch)
	}
}

// PartialPusHandlingError marks a non-fatal hiccup (a verification TM that
// failed to send, transient backpressure on a target queue) that happened
// while the telecommand itself was otherwise handled correctly. Run logs and
// continues rather than treating the handler loop itself as broken.
type PartialPusHandlingError struct {
	Cause error
}

func (e *PartialPusHandlingError) Error() string {
	return fmt.Sprintf("services: partial handling error: %v", e.Cause)
}

func (e *PartialPusHandlingError) Unwrap() error { return e.Cause }

// Handler runs one PUS service's request loop. Dispatch holds the
// service-specific subservice switch; everything else (reading the tc back
// out of the pool, parsing its header, freeing the slot) is common.
type Handler struct {
	Name     string
	Apid     uint16
	DestID   uint16
	Pool     *pool.SharedPool
	Reporter *verification.Reporter
	Sink     telemetry.Sender
	Inbox    *Inbox

	TimeStamp func() []byte
}

type DispatchFunc func(h *Handler, req Request, hdr distributor.TcHeader) error

// Run drains Inbox until it is closed or ctx is canceled.
func (h *Handler) Run(ctx context.Context, dispatch DispatchFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		req, ok := h.Inbox.receive()
		if !ok {
			log.Infof("%s: inbox closed, stopping", h.Name)
			return
		}
		if err := h.handleOne(req, dispatch); err != nil {
			log.Warnf("%s: %v", h.Name, err)
		}
	}
}

func (h *Handler) handleOne(req Request, dispatch DispatchFunc) error {
	var raw []byte
	if err := h.Pool.WithRead(req.Addr, false, func(data []byte) error {
		raw = append([]byte(nil), data...)
		return nil
	}); err != nil {
		return fmt.Errorf("read tc: %w", err)
	}

	hdr, err := distributor.ParseTcHeader(raw)
	if err != nil {
		_ = h.Pool.Free(req.Addr)
		return fmt.Errorf("parse header: %w", err)
	}

	dispatchErr := dispatch(h, req, hdr)
	if ferr := h.Pool.Free(req.Addr); ferr != nil {
		log.Warnf("%s: free slot: %v", h.Name, ferr)
	}

	if dispatchErr == nil {
		return nil
	}
	var partial *PartialPusHandlingError
	if errors.As(dispatchErr, &partial) {
		log.Warnf("%s: %v", h.Name, partial)
		return nil
	}
	return dispatchErr
}

// sendTM builds and sends a non-verification TM (a PUS 17 pong, for
// example) through the handler's sink.
func (h *Handler) sendTM(service, subservice uint8, sourceData []byte) error {
	return h.Sink.Send(telemetry.TM{
		Apid:       h.Apid,
		DestID:     h.DestID,
		Service:    service,
		Subservice: subservice,
		TimeStamp:  h.TimeStamp(),
		SourceData: sourceData,
	})
}
