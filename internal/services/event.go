package services

import (
	"encoding/binary"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/pusevents"
	"github.com/skyhaven-space/obsw/internal/verification"
)

// PUS Service 5 subservices this handler accepts as telecommands (reporting
// subservices 1-4 belong to pusevents.Dispatcher, not here).
const (
	tc5EnableEventReporting  = 5
	tc5DisableEventReporting = 6
)

// DispatchEvent implements PUS Service 5's control side: enabling or
// disabling reporting for a specific event id, carried as the first 4 bytes
// of application data.
func DispatchEvent(dispatcher *pusevents.Dispatcher) DispatchFunc {
	return func(h *Handler, req Request, hdr distributor.TcHeader) error {
		ts := h.TimeStamp()
		if len(hdr.AppData) < 4 {
			return h.Reporter.StartFailure(req.Token, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(ecss.CodeNotEnoughAppData),
			})
		}
		eventRaw := binary.BigEndian.Uint32(hdr.AppData[0:4])

		started, err := h.Reporter.StartSuccess(req.Token, ts)
		if err != nil {
			started = recoverStarted(err)
		}

		switch hdr.Subservice {
		case tc5EnableEventReporting:
			dispatcher.EnableRaw(eventRaw)
		case tc5DisableEventReporting:
			dispatcher.DisableRaw(eventRaw)
		default:
			return h.Reporter.StepFailure(started, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(ecss.CodeInvalidPusSubservice),
			}, nil)
		}
		return completeOrPartial(h, started)
	}
}
