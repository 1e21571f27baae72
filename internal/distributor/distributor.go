package distributor

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/metrics"
	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/verification"
	"github.com/skyhaven-space/obsw/pkg/log"
)

var ErrServiceNotImplemented = errors.New("distributor: no handler registered for pus service")

// ErrRateLimited is returned by HandleTc when the ingress token bucket is
// empty. A ground link misbehaving or replaying traffic should not be able
// to starve the packet pool or the verification reporter's request table.
var ErrRateLimited = errors.New("distributor: tc ingress rate limit exceeded")

// ServiceReceiver is whatever a PUS service has registered to receive its
// accepted telecommands — in production, a services.Handler's Inbox.
type ServiceReceiver interface {
	Forward(addr pool.StoreAddr, token verification.Token[verification.StateAccepted]) error
}

// Distributor owns the verification reporter used for the accept/reject
// decision and the per-service routing table. It does not itself decode
// application data beyond the fixed header — that is each service's job.
type Distributor struct {
	pool      *pool.SharedPool
	reporter  *verification.Reporter
	timeStamp func() []byte
	limiter   *rate.Limiter

	mu       sync.RWMutex
	services map[uint8]ServiceReceiver
}

// New builds a Distributor whose TC ingress is capped at ratePerSec sustained
// telecommands per second, tolerating bursts up to burst. Ground stations
// and the TMTC server both funnel through the same instance, so this limiter
// is the one chokepoint that protects the packet pool and the verification
// reporter from an ingress flood regardless of where it originates.
func New(sharedPool *pool.SharedPool, reporter *verification.Reporter, timeStamp func() []byte, ratePerSec, burst int) *Distributor {
	return &Distributor{
		pool:      sharedPool,
		reporter:  reporter,
		timeStamp: timeStamp,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
		services:  make(map[uint8]ServiceReceiver),
	}
}

// RegisterService wires a PUS service id to its handler's inbox.
func (d *Distributor) RegisterService(service uint8, recv ServiceReceiver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.services[service] = recv
}

// HandleTc is called once per telecommand address the TC ingress path has
// allocated in the pool. It looks the service up before accepting, so a
// telecommand for an unimplemented service is rejected (PUS[1,2]) rather
// than accepted and then failed — the verification lifecycle never enters
// Accepted for a command nothing can service.
func (d *Distributor) HandleTc(addr pool.StoreAddr) error {
	if !d.limiter.Allow() {
		metrics.TcRejected.Inc()
		_ = d.pool.Free(addr)
		return ErrRateLimited
	}

	var raw []byte
	if err := d.pool.WithRead(addr, false, func(data []byte) error {
		raw = append([]byte(nil), data...)
		return nil
	}); err != nil {
		return fmt.Errorf("distributor: read tc: %w", err)
	}

	hdr, err := ParseTcHeader(raw)
	if err != nil {
		_ = d.pool.Free(addr)
		return fmt.Errorf("distributor: parse header: %w", err)
	}

	none := d.reporter.AddTC(hdr.ReqID)
	metrics.TcAccepted.Inc()

	d.mu.RLock()
	recv, ok := d.services[hdr.Service]
	d.mu.RUnlock()

	if !ok {
		if ferr := d.reporter.AcceptanceFailure(none, verification.FailParams{
			TimeStamp:   d.timeStamp(),
			FailureCode: verification.EnumU16(ecss.CodeServiceNotImplemented),
		}); ferr != nil {
			log.Warnf("distributor: acceptance-failure tm for service %d: %v", hdr.Service, ferr)
		}
		_ = d.pool.Free(addr)
		return fmt.Errorf("%w: service %d", ErrServiceNotImplemented, hdr.Service)
	}

	accepted, err := d.reporter.AcceptanceSuccess(none, d.timeStamp())
	if err != nil {
		var tokenErr *verification.ErrorWithToken[verification.StateAccepted]
		if errors.As(err, &tokenErr) {
			log.Warnf("distributor: acceptance tm send failed, forwarding anyway: %v", err)
			accepted = tokenErr.Token
		} else {
			_ = d.pool.Free(addr)
			return fmt.Errorf("distributor: acceptance-success: %w", err)
		}
	}

	if err := recv.Forward(addr, accepted); err != nil {
		return fmt.Errorf("distributor: forward to service %d: %w", hdr.Service, err)
	}
	return nil
}
