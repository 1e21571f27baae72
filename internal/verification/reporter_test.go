package verification

import (
	"errors"
	"testing"

	"github.com/skyhaven-space/obsw/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent    []telemetry.TM
	failNth int // 1-indexed; 0 disables
	calls   int
}

func (s *recordingSender) Send(tm telemetry.TM) error {
	s.calls++
	if s.failNth != 0 && s.calls == s.failNth {
		return errors.New("sink unavailable")
	}
	s.sent = append(s.sent, tm)
	return nil
}

func TestFullLifecycleSuccess(t *testing.T) {
	sender := &recordingSender{}
	r := NewReporter(Config{Apid: 0x42, DestID: 1}, sender)

	reqID := NewRequestID(0, 0x0042, 0x1234)
	none := r.AddTC(reqID)

	accepted, err := r.AcceptanceSuccess(none, []byte{0})
	require.NoError(t, err)
	started, err := r.StartSuccess(accepted, []byte{0})
	require.NoError(t, err)
	_, err = r.StepSuccess(started, []byte{0}, 0)
	require.NoError(t, err)
	require.NoError(t, r.CompletionSuccess(started, []byte{0}))

	require.Len(t, sender.sent, 4)
	subservices := []uint8{}
	for _, tm := range sender.sent {
		subservices = append(subservices, tm.Subservice)
		assert.Equal(t, uint8(1), tm.Service)
		reqBytes := reqID.Bytes()
		assert.Equal(t, reqBytes[:], tm.SourceData[:4])
	}
	assert.Equal(t, []uint8{
		SubserviceAcceptSuccess, SubserviceStartSuccess, SubserviceStepSuccess, SubserviceCompletionSuccess,
	}, subservices)
}

func TestFailedSendStillAdvancesToken(t *testing.T) {
	sender := &recordingSender{failNth: 1}
	r := NewReporter(Config{Apid: 1, DestID: 1}, sender)
	none := r.AddTC(NewRequestID(0, 1, 1))

	_, err := r.AcceptanceSuccess(none, nil)
	require.Error(t, err)

	var tokenErr *ErrorWithToken[StateAccepted]
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, none.reqID, tokenErr.Token.RequestID())
}

func TestAcceptanceFailureCarriesFailureCode(t *testing.T) {
	sender := &recordingSender{}
	r := NewReporter(Config{Apid: 1, DestID: 1}, sender)
	none := r.AddTC(NewRequestID(0, 1, 1))

	err := r.AcceptanceFailure(none, FailParams{
		TimeStamp:   []byte{0},
		FailureCode: EnumU16(0xA3),
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, SubserviceAcceptFailure, int(sender.sent[0].Subservice))
	assert.Equal(t, []byte{0xA3 >> 8, 0xA3 & 0xFF}, sender.sent[0].SourceData[4:6])
}
