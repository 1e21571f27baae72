package services

import (
	"encoding/binary"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/verification"
)

// PUS Service 3 (housekeeping) subservices this handler accepts.
const (
	tc3EnablePeriodicHk    = 3
	tc3DisablePeriodicHk   = 4
	tc3ModifyCollectionIvl = 9
	tc3GenerateOneShotHk   = 27
)

// HKTarget is one ObjectId-addressable housekeeping data source. Domain
// subsystems (attitude determination, power, thermal) implement it and
// register with a TargetRouter; DispatchHK never looks inside a target's own
// parameter set, it only routes the structure-level request.
type HKTarget interface {
	EnablePeriodicHK(uniqueID uint32) error
	DisablePeriodicHK(uniqueID uint32) error
	SetCollectionInterval(uniqueID uint32, interval uint32) error
	GenerateOneShotHK(uniqueID uint32) error
}

// TargetRouter resolves the 4-byte ObjectId every PUS 3/8 request carries as
// its first application-data field.
type TargetRouter interface {
	LookupHKTarget(targetID uint32) (HKTarget, bool)
}

// DispatchHK implements PUS Service 3: application data is
// target_id(4) ‖ unique_id(4) [‖ collection_interval(4)].
func DispatchHK(router TargetRouter) DispatchFunc {
	return func(h *Handler, req Request, hdr distributor.TcHeader) error {
		ts := h.TimeStamp()
		fail := func(code uint16) error {
			return h.Reporter.StartFailure(req.Token, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(code),
			})
		}

		if len(hdr.AppData) < 4 {
			return fail(ecss.CodeHkTargetIDMissing)
		}
		targetID := binary.BigEndian.Uint32(hdr.AppData[0:4])
		rest := hdr.AppData[4:]

		target, ok := router.LookupHKTarget(targetID)
		if !ok {
			return fail(ecss.CodeUnknownTargetID)
		}

		if len(rest) < 4 {
			return fail(ecss.CodeHkUniqueIDMissing)
		}
		uniqueID := binary.BigEndian.Uint32(rest[0:4])
		rest = rest[4:]

		started, err := h.Reporter.StartSuccess(req.Token, ts)
		if err != nil {
			started = recoverStarted(err)
		}

		stepFail := func(code uint16) error {
			return h.Reporter.StepFailure(started, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(code),
			}, nil)
		}

		switch hdr.Subservice {
		case tc3EnablePeriodicHk:
			if err := target.EnablePeriodicHK(uniqueID); err != nil {
				return &PartialPusHandlingError{Cause: err}
			}
		case tc3DisablePeriodicHk:
			if err := target.DisablePeriodicHK(uniqueID); err != nil {
				return &PartialPusHandlingError{Cause: err}
			}
		case tc3ModifyCollectionIvl:
			if len(rest) < 4 {
				return stepFail(ecss.CodeHkCollectionIntervalMissing)
			}
			interval := binary.BigEndian.Uint32(rest[0:4])
			if err := target.SetCollectionInterval(uniqueID, interval); err != nil {
				return &PartialPusHandlingError{Cause: err}
			}
		case tc3GenerateOneShotHk:
			if err := target.GenerateOneShotHK(uniqueID); err != nil {
				return &PartialPusHandlingError{Cause: err}
			}
		default:
			return stepFail(ecss.CodeInvalidPusSubservice)
		}
		return completeOrPartial(h, started)
	}
}
