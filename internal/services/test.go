package services

import (
	"errors"
	"fmt"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/verification"
)

// PUS Service 17 (test) subservices.
const (
	tc17Ping            = 1
	tm17Pong            = 2
	tc17TriggerTestEvent = 128
)

// TestEventHook is invoked by subservice 128 to raise a test event. cmd/obsw
// passes nil. A nil hook makes subservice 128 a no-op beyond the
// verification reports.
type TestEventHook func()

// DispatchTest implements PUS Service 17: subservice 1 replies with a
// PUS[17,2] pong between start and completion; subservice 128 runs the
// mission test-event hook instead.
func DispatchTest(hook TestEventHook) DispatchFunc {
	return func(h *Handler, req Request, hdr distributor.TcHeader) error {
		ts := h.TimeStamp()

		switch hdr.Subservice {
		case tc17Ping:
			started, err := h.Reporter.StartSuccess(req.Token, ts)
			if err != nil {
				started = recoverStarted(err)
			}
			if err := h.sendTM(17, tm17Pong, nil); err != nil {
				return &PartialPusHandlingError{Cause: fmt.Errorf("pong: %w", err)}
			}
			return completeOrPartial(h, started)
		case tc17TriggerTestEvent:
			started, err := h.Reporter.StartSuccess(req.Token, ts)
			if err != nil {
				started = recoverStarted(err)
			}
			if hook != nil {
				hook()
			}
			return completeOrPartial(h, started)
		default:
			return h.Reporter.StartFailure(req.Token, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(ecss.CodeInvalidPusSubservice),
			})
		}
	}
}

func completeOrPartial(h *Handler, started verification.Token[verification.StateStarted]) error {
	if err := h.Reporter.CompletionSuccess(started, h.TimeStamp()); err != nil {
		return &PartialPusHandlingError{Cause: err}
	}
	return nil
}

// recoverStarted pulls the advanced token out of a failed-send error so
// handling can keep going even when the verification TM itself didn't reach
// its sink.
func recoverStarted(err error) verification.Token[verification.StateStarted] {
	var tokenErr *verification.ErrorWithToken[verification.StateStarted]
	if errors.As(err, &tokenErr) {
		return tokenErr.Token
	}
	return verification.Token[verification.StateStarted]{}
}
