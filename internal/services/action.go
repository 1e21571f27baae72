package services

import (
	"encoding/binary"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/verification"
)

// tc8PerformFunction is ECSS PUS 8's sole externally relevant subservice;
// everything else the standard defines (progress reporting, data report
// subservices) is TM this module emits, not a TC subservice it accepts.
const tc8PerformFunction = 128

// ActionTarget is one ObjectId-addressable command target. DispatchAction
// resolves target_id and hands the rest of the request straight through —
// interpreting action_id and its parameters is the target's job.
type ActionTarget interface {
	PerformAction(actionID uint32, params []byte) error
}

// ActionRouter resolves the 4-byte ObjectId PUS 8 requests carry as their
// first application-data field, same shape as TargetRouter for PUS 3.
type ActionRouter interface {
	LookupActionTarget(targetID uint32) (ActionTarget, bool)
}

// DispatchAction implements PUS Service 8: application data is
// target_id(4) ‖ action_id(4) ‖ params.
func DispatchAction(router ActionRouter) DispatchFunc {
	return func(h *Handler, req Request, hdr distributor.TcHeader) error {
		ts := h.TimeStamp()
		fail := func(code uint16) error {
			return h.Reporter.StartFailure(req.Token, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(code),
			})
		}

		if hdr.Subservice != tc8PerformFunction {
			return fail(ecss.CodeInvalidPusSubservice)
		}
		if len(hdr.AppData) < 8 {
			return fail(ecss.CodeNotEnoughAppData)
		}
		targetID := binary.BigEndian.Uint32(hdr.AppData[0:4])
		actionID := binary.BigEndian.Uint32(hdr.AppData[4:8])
		params := hdr.AppData[8:]

		target, ok := router.LookupActionTarget(targetID)
		if !ok {
			return fail(ecss.CodeUnknownTargetID)
		}

		started, err := h.Reporter.StartSuccess(req.Token, ts)
		if err != nil {
			started = recoverStarted(err)
		}

		if err := target.PerformAction(actionID, params); err != nil {
			return &PartialPusHandlingError{Cause: err}
		}
		return completeOrPartial(h, started)
	}
}
