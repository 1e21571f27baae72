package services

import (
	"encoding/binary"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/scheduler"
	"github.com/skyhaven-space/obsw/internal/verification"
)

// PUS Service 11 subservices.
const (
	tc11Enable         = 1
	tc11Disable        = 2
	tc11Reset          = 3
	tc11InsertActivity = 4
)

// DispatchScheduler implements PUS Service 11. Subservice 4's application
// data is a 4-byte unix release time followed by the nested telecommand to
// schedule, bytes-for-bytes, straight into the pool. scheduleNestedTc is
// expected to allocate a pool slot for raw and insert it into sched at
// releaseAt, returning false if either step failed (pool exhausted, or
// releaseAt beyond the scheduler's insert margin).
func DispatchScheduler(sched *scheduler.Scheduler, scheduleNestedTc func(releaseAt int64, raw []byte) bool) DispatchFunc {
	return func(h *Handler, req Request, hdr distributor.TcHeader) error {
		ts := h.TimeStamp()
		started, err := h.Reporter.StartSuccess(req.Token, ts)
		if err != nil {
			started = recoverStarted(err)
		}

		fail := func(code uint16) error {
			return h.Reporter.StepFailure(started, verification.FailParams{
				TimeStamp:   ts,
				FailureCode: verification.EnumU16(code),
			}, nil)
		}

		switch hdr.Subservice {
		case tc11Enable:
			sched.Enable()
		case tc11Disable:
			sched.Disable()
		case tc11Reset:
			for _, addr := range sched.Reset() {
				_ = h.Pool.Free(addr)
			}
		case tc11InsertActivity:
			if len(hdr.AppData) < 4 {
				return fail(ecss.CodeNotEnoughAppData)
			}
			releaseAt := int64(binary.BigEndian.Uint32(hdr.AppData[0:4]))
			if !scheduleNestedTc(releaseAt, hdr.AppData[4:]) {
				return fail(ecss.CodeInvalidPusSubservice)
			}
		default:
			return fail(ecss.CodeInvalidPusSubservice)
		}
		return completeOrPartial(h, started)
	}
}

// NewScheduleNestedTc builds the scheduleNestedTc callback DispatchScheduler
// needs: it allocates a pool slot for raw, inserts it into sched at
// releaseAt, and frees the slot again if the scheduler rejects the insert
// (releaseAt beyond sched's margin) so a bad nested TC never leaks a slot.
func NewScheduleNestedTc(sp *pool.SharedPool, sched *scheduler.Scheduler) func(releaseAt int64, raw []byte) bool {
	return func(releaseAt int64, raw []byte) bool {
		addr, err := sp.Alloc(len(raw))
		if err != nil {
			return false
		}
		if err := sp.WriteBytes(addr, raw); err != nil {
			_ = sp.Free(addr)
			return false
		}
		if !sched.InsertTC(releaseAt, addr) {
			_ = sp.Free(addr)
			return false
		}
		return true
	}
}
