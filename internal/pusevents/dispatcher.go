// Package pusevents converts events raised on the internal event bus into
// PUS Service 5 telemetry, and lets PUS Service 5 telecommands disable or
// re-enable reporting for a specific event id. It is a consumer of
// internal/events, not a replacement for it — the event manager still owns
// fan-out to every other listener; this package is just one more sender.
package pusevents

import (
	"errors"
	"fmt"
	"sync"

	"github.com/skyhaven-space/obsw/internal/events"
	"github.com/skyhaven-space/obsw/internal/telemetry"
)

// PUS Service 5 subservices, one per severity.
const (
	SubserviceInfo   = 1
	SubserviceLow    = 2
	SubserviceMedium = 3
	SubserviceHigh   = 4
)

var subserviceBySeverity = map[events.Severity]uint8{
	events.SeverityInfo:   SubserviceInfo,
	events.SeverityLow:    SubserviceLow,
	events.SeverityMedium: SubserviceMedium,
	events.SeverityHigh:   SubserviceHigh,
}

// ErrSeverityMismatch is returned when the subservice implied by the
// generating call (GenerateInfoEventTM, GenerateHighSeverityEventTM, ...)
// does not match the severity actually encoded in the event id. A caller
// that wants the TM's subservice to simply follow the event's own severity
// should use GeneratePusEventTM instead of one of the four fixed-severity
// variants.
var ErrSeverityMismatch = errors.New("pusevents: subservice implied by caller does not match the event's own severity")

// Config is the apid/destination every PUS[5,*] TM is addressed with.
type Config struct {
	Apid   uint16
	DestID uint16
}

// Dispatcher holds the disabled-event set and builds PUS[5,*] telemetry.
// Disabling is keyed on the event's raw id, so EventU16 and EventU32
// instances that happen to collide in their low bits are still tracked
// independently by virtue of RawAsLargestType never colliding between the
// two widths in practice (callers are expected to pick one width per event
// catalog).
type Dispatcher struct {
	cfg Config

	mu       sync.Mutex
	disabled map[uint32]struct{}
}

func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg, disabled: make(map[uint32]struct{})}
}

func (d *Dispatcher) Enable(event events.GenericEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.disabled, event.RawAsLargestType())
}

func (d *Dispatcher) Disable(event events.GenericEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabled[event.RawAsLargestType()] = struct{}{}
}

// EnableRaw/DisableRaw let PUS Service 5 telecommand handling toggle
// reporting from a raw event id decoded off the wire, without reconstructing
// a concrete EventU16/EventU32 value.
func (d *Dispatcher) EnableRaw(raw uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.disabled, raw)
}

func (d *Dispatcher) DisableRaw(raw uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disabled[raw] = struct{}{}
}

func (d *Dispatcher) EventEnabled(event events.GenericEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, disabled := d.disabled[event.RawAsLargestType()]
	return !disabled
}

// GeneratePusEventTM reports event at whatever subservice its own severity
// maps to. Returns false without error if the event is currently disabled.
func (d *Dispatcher) GeneratePusEventTM(sender telemetry.Sender, timeStamp []byte, event events.GenericEvent, aux []byte) (bool, error) {
	return d.generate(sender, timeStamp, event, aux, event.Severity())
}

// GenerateInfoEventTM, GenerateLowSeverityEventTM, GenerateMediumSeverityEventTM
// and GenerateHighSeverityEventTM mirror calling one of the reference
// design's four severity-specific reporter methods: the caller states which
// subservice it expects by which method it calls, and a mismatch against the
// event's actual embedded severity is reported as ErrSeverityMismatch rather
// than silently reported under the wrong subservice.
func (d *Dispatcher) GenerateInfoEventTM(sender telemetry.Sender, timeStamp []byte, event events.GenericEvent, aux []byte) (bool, error) {
	return d.generate(sender, timeStamp, event, aux, events.SeverityInfo)
}

func (d *Dispatcher) GenerateLowSeverityEventTM(sender telemetry.Sender, timeStamp []byte, event events.GenericEvent, aux []byte) (bool, error) {
	return d.generate(sender, timeStamp, event, aux, events.SeverityLow)
}

func (d *Dispatcher) GenerateMediumSeverityEventTM(sender telemetry.Sender, timeStamp []byte, event events.GenericEvent, aux []byte) (bool, error) {
	return d.generate(sender, timeStamp, event, aux, events.SeverityMedium)
}

func (d *Dispatcher) GenerateHighSeverityEventTM(sender telemetry.Sender, timeStamp []byte, event events.GenericEvent, aux []byte) (bool, error) {
	return d.generate(sender, timeStamp, event, aux, events.SeverityHigh)
}

func (d *Dispatcher) generate(sender telemetry.Sender, timeStamp []byte, event events.GenericEvent, aux []byte, asserted events.Severity) (bool, error) {
	if !d.EventEnabled(event) {
		return false, nil
	}
	if asserted != event.Severity() {
		return false, ErrSeverityMismatch
	}

	sourceData := make([]byte, 0, 4+len(aux))
	var eventIDBytes [4]byte
	raw := event.RawAsLargestType()
	eventIDBytes[0] = byte(raw >> 24)
	eventIDBytes[1] = byte(raw >> 16)
	eventIDBytes[2] = byte(raw >> 8)
	eventIDBytes[3] = byte(raw)
	sourceData = append(sourceData, eventIDBytes[:]...)
	sourceData = append(sourceData, aux...)

	tm := telemetry.TM{
		Apid:       d.cfg.Apid,
		DestID:     d.cfg.DestID,
		Service:    5,
		Subservice: subserviceBySeverity[asserted],
		TimeStamp:  timeStamp,
		SourceData: sourceData,
	}
	if err := sender.Send(tm); err != nil {
		return true, fmt.Errorf("pusevents: tm send: %w", err)
	}
	return true, nil
}
