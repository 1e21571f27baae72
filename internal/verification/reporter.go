package verification

import (
	"fmt"

	"github.com/skyhaven-space/obsw/internal/telemetry"
)

// PUS Service 1 subservices.
const (
	SubserviceAcceptSuccess     = 1
	SubserviceAcceptFailure     = 2
	SubserviceStartSuccess      = 3
	SubserviceStartFailure      = 4
	SubserviceStepSuccess       = 5
	SubserviceStepFailure       = 6
	SubserviceCompletionSuccess = 7
	SubserviceCompletionFailure = 8
)

// Reporter builds and sends PUS Service 1 verification telemetry. It is
// deliberately decoupled from the pool and the funnel: it only knows how to
// turn a lifecycle transition into a telemetry.TM and hand it to a
// telemetry.Sender, which in production is internal/tmsink.Sink.
type Reporter struct {
	cfg    Config
	sender telemetry.Sender
}

func NewReporter(cfg Config, sender telemetry.Sender) *Reporter {
	return &Reporter{cfg: cfg, sender: sender}
}

// Clone returns a Reporter sharing the same sender and config, for handing
// one out per service handler goroutine without sharing mutable state.
func (r *Reporter) Clone() *Reporter {
	return &Reporter{cfg: r.cfg, sender: r.sender}
}

// AddTC mints the starting token for a freshly-parsed telecommand. This is
// the only way to obtain a Token[StateNone]; everything downstream composes
// from it.
func (r *Reporter) AddTC(reqID RequestID) Token[StateNone] {
	return newToken[StateNone](reqID)
}

func buildSourceData(reqID RequestID, step *uint8, fail *FailParams) []byte {
	reqBytes := reqID.Bytes()
	buf := append([]byte(nil), reqBytes[:]...)
	if step != nil {
		buf = append(buf, *step)
	}
	if fail != nil {
		if fail.FailureCode != nil {
			buf = append(buf, fail.FailureCode.enumBytes()...)
		}
		buf = append(buf, fail.FailureData...)
	}
	return buf
}

func (r *Reporter) send(subservice uint8, timeStamp []byte, sourceData []byte) error {
	tm := telemetry.TM{
		Apid:       r.cfg.Apid,
		DestID:     r.cfg.DestID,
		Service:    1,
		Subservice: subservice,
		TimeStamp:  timeStamp,
		SourceData: sourceData,
	}
	return r.sender.Send(tm)
}

// AcceptanceSuccess transitions None -> Accepted and reports PUS[1,1]. The
// returned token is always valid even if the TM send failed — recover it
// from the returned error via errors.As(err, &*ErrorWithToken[StateAccepted]).
func (r *Reporter) AcceptanceSuccess(t Token[StateNone], timeStamp []byte) (Token[StateAccepted], error) {
	next := newToken[StateAccepted](t.reqID)
	sd := buildSourceData(t.reqID, nil, nil)
	if err := r.send(SubserviceAcceptSuccess, timeStamp, sd); err != nil {
		return next, &ErrorWithToken[StateAccepted]{Token: next, Cause: err}
	}
	return next, nil
}

// AcceptanceFailure is terminal: None -> nothing, PUS[1,2].
func (r *Reporter) AcceptanceFailure(t Token[StateNone], fail FailParams) error {
	sd := buildSourceData(t.reqID, nil, &fail)
	if err := r.send(SubserviceAcceptFailure, fail.TimeStamp, sd); err != nil {
		return fmt.Errorf("verification: acceptance-failure tm: %w", err)
	}
	return nil
}

// StartSuccess transitions Accepted -> Started and reports PUS[1,3].
func (r *Reporter) StartSuccess(t Token[StateAccepted], timeStamp []byte) (Token[StateStarted], error) {
	next := newToken[StateStarted](t.reqID)
	sd := buildSourceData(t.reqID, nil, nil)
	if err := r.send(SubserviceStartSuccess, timeStamp, sd); err != nil {
		return next, &ErrorWithToken[StateStarted]{Token: next, Cause: err}
	}
	return next, nil
}

// StartFailure is terminal: Accepted -> nothing, PUS[1,4].
func (r *Reporter) StartFailure(t Token[StateAccepted], fail FailParams) error {
	sd := buildSourceData(t.reqID, nil, &fail)
	if err := r.send(SubserviceStartFailure, fail.TimeStamp, sd); err != nil {
		return fmt.Errorf("verification: start-failure tm: %w", err)
	}
	return nil
}

// StepSuccess reports PUS[1,5] without changing state — a command may emit
// any number of successful steps while Started.
func (r *Reporter) StepSuccess(t Token[StateStarted], timeStamp []byte, step uint8) (Token[StateStarted], error) {
	sd := buildSourceData(t.reqID, &step, nil)
	if err := r.send(SubserviceStepSuccess, timeStamp, sd); err != nil {
		return t, &ErrorWithToken[StateStarted]{Token: t, Cause: err}
	}
	return t, nil
}

// StepFailure is terminal: Started -> nothing, PUS[1,6]. step is nil when
// the mission doesn't number the step that failed.
func (r *Reporter) StepFailure(t Token[StateStarted], fail FailParams, step *uint8) error {
	sd := buildSourceData(t.reqID, step, &fail)
	if err := r.send(SubserviceStepFailure, fail.TimeStamp, sd); err != nil {
		return fmt.Errorf("verification: step-failure tm: %w", err)
	}
	return nil
}

// CompletionSuccess is terminal: Started -> nothing, PUS[1,7].
func (r *Reporter) CompletionSuccess(t Token[StateStarted], timeStamp []byte) error {
	sd := buildSourceData(t.reqID, nil, nil)
	if err := r.send(SubserviceCompletionSuccess, timeStamp, sd); err != nil {
		return fmt.Errorf("verification: completion-success tm: %w", err)
	}
	return nil
}

// CompletionFailure is terminal: Started -> nothing, PUS[1,8].
func (r *Reporter) CompletionFailure(t Token[StateStarted], fail FailParams) error {
	sd := buildSourceData(t.reqID, nil, &fail)
	if err := r.send(SubserviceCompletionFailure, fail.TimeStamp, sd); err != nil {
		return fmt.Errorf("verification: completion-failure tm: %w", err)
	}
	return nil
}
