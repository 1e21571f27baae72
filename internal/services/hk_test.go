package services

import (
	"encoding/binary"
	"testing"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/ecss"
	"github.com/skyhaven-space/obsw/internal/telemetry"
	"github.com/skyhaven-space/obsw/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []telemetry.TM
}

func (s *recordingSender) Send(tm telemetry.TM) error {
	s.sent = append(s.sent, tm)
	return nil
}

type recordingHkTarget struct {
	enabled     bool
	disabled    bool
	interval    uint32
	oneShot     bool
	lastUnique  uint32
}

func (t *recordingHkTarget) EnablePeriodicHK(uniqueID uint32) error {
	t.enabled, t.lastUnique = true, uniqueID
	return nil
}

func (t *recordingHkTarget) DisablePeriodicHK(uniqueID uint32) error {
	t.disabled, t.lastUnique = true, uniqueID
	return nil
}

func (t *recordingHkTarget) SetCollectionInterval(uniqueID uint32, interval uint32) error {
	t.interval, t.lastUnique = interval, uniqueID
	return nil
}

func (t *recordingHkTarget) GenerateOneShotHK(uniqueID uint32) error {
	t.oneShot, t.lastUnique = true, uniqueID
	return nil
}

type singleTargetRouter struct {
	id     uint32
	target HKTarget
}

func (r *singleTargetRouter) LookupHKTarget(targetID uint32) (HKTarget, bool) {
	if targetID != r.id {
		return nil, false
	}
	return r.target, true
}

func newTestHandler(sender telemetry.Sender) (*Handler, verification.Token[verification.StateAccepted]) {
	reporter := verification.NewReporter(verification.Config{Apid: 1, DestID: 1}, sender)
	ts := func() []byte { return []byte{0} }
	none := reporter.AddTC(verification.RequestID(1))
	accepted, _ := reporter.AcceptanceSuccess(none, ts())
	h := &Handler{Name: "test", Reporter: reporter, Sink: sender, TimeStamp: ts}
	return h, accepted
}

func hkAppData(targetID, uniqueID uint32, extra ...uint32) []byte {
	buf := make([]byte, 8+4*len(extra))
	binary.BigEndian.PutUint32(buf[0:4], targetID)
	binary.BigEndian.PutUint32(buf[4:8], uniqueID)
	for i, v := range extra {
		binary.BigEndian.PutUint32(buf[8+4*i:12+4*i], v)
	}
	return buf
}

func TestDispatchHKEnablePeriodic(t *testing.T) {
	sender := &recordingSender{}
	h, token := newTestHandler(sender)
	target := &recordingHkTarget{}
	router := &singleTargetRouter{id: 42, target: target}

	err := DispatchHK(router)(h, Request{Token: token}, distributor.TcHeader{
		Subservice: tc3EnablePeriodicHk,
		AppData:    hkAppData(42, 7),
	})
	require.NoError(t, err)
	assert.True(t, target.enabled)
	assert.Equal(t, uint32(7), target.lastUnique)
}

func TestDispatchHKModifyIntervalMissingField(t *testing.T) {
	sender := &recordingSender{}
	h, token := newTestHandler(sender)
	target := &recordingHkTarget{}
	router := &singleTargetRouter{id: 42, target: target}

	err := DispatchHK(router)(h, Request{Token: token}, distributor.TcHeader{
		Subservice: tc3ModifyCollectionIvl,
		AppData:    hkAppData(42, 7), // no interval field
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 3) // accept, start, step-fail
	assert.Equal(t, uint16(ecss.CodeHkCollectionIntervalMissing), binary.BigEndian.Uint16(lastFailCode(sender.sent)))
}

func TestDispatchHKUnknownTarget(t *testing.T) {
	sender := &recordingSender{}
	h, token := newTestHandler(sender)
	router := &singleTargetRouter{id: 42, target: &recordingHkTarget{}}

	err := DispatchHK(router)(h, Request{Token: token}, distributor.TcHeader{
		Subservice: tc3EnablePeriodicHk,
		AppData:    hkAppData(99, 7),
	})
	require.NoError(t, err)
	last := sender.sent[len(sender.sent)-1]
	assert.Equal(t, uint8(verification.SubserviceStartFailure), last.Subservice)
}

func lastFailCode(sent []telemetry.TM) []byte {
	tm := sent[len(sent)-1]
	// FailParams encode request id + [step] + failure code at a fixed offset
	// the reporter controls; tests only need the trailing two bytes it wrote.
	return tm.SourceData[len(tm.SourceData)-2:]
}
