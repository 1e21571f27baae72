package services

import (
	"encoding/binary"
	"testing"

	"github.com/skyhaven-space/obsw/internal/distributor"
	"github.com/skyhaven-space/obsw/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingActionTarget struct {
	lastAction uint32
	lastParams []byte
}

func (t *recordingActionTarget) PerformAction(actionID uint32, params []byte) error {
	t.lastAction = actionID
	t.lastParams = append([]byte(nil), params...)
	return nil
}

type singleActionRouter struct {
	id     uint32
	target ActionTarget
}

func (r *singleActionRouter) LookupActionTarget(targetID uint32) (ActionTarget, bool) {
	if targetID != r.id {
		return nil, false
	}
	return r.target, true
}

func actionAppData(targetID, actionID uint32, params []byte) []byte {
	buf := make([]byte, 8+len(params))
	binary.BigEndian.PutUint32(buf[0:4], targetID)
	binary.BigEndian.PutUint32(buf[4:8], actionID)
	copy(buf[8:], params)
	return buf
}

func TestDispatchActionPerformsOnTarget(t *testing.T) {
	sender := &recordingSender{}
	h, token := newTestHandler(sender)
	target := &recordingActionTarget{}
	router := &singleActionRouter{id: 7, target: target}

	err := DispatchAction(router)(h, Request{Token: token}, distributor.TcHeader{
		Subservice: tc8PerformFunction,
		AppData:    actionAppData(7, 99, []byte{0xAA, 0xBB}),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(99), target.lastAction)
	assert.Equal(t, []byte{0xAA, 0xBB}, target.lastParams)
}

func TestDispatchActionUnknownTarget(t *testing.T) {
	sender := &recordingSender{}
	h, token := newTestHandler(sender)
	router := &singleActionRouter{id: 7, target: &recordingActionTarget{}}

	err := DispatchAction(router)(h, Request{Token: token}, distributor.TcHeader{
		Subservice: tc8PerformFunction,
		AppData:    actionAppData(1, 99, nil),
	})
	require.NoError(t, err)
	last := sender.sent[len(sender.sent)-1]
	assert.Equal(t, uint8(verification.SubserviceStartFailure), last.Subservice)
}

func TestDispatchActionWrongSubservice(t *testing.T) {
	sender := &recordingSender{}
	h, token := newTestHandler(sender)
	router := &singleActionRouter{id: 7, target: &recordingActionTarget{}}

	err := DispatchAction(router)(h, Request{Token: token}, distributor.TcHeader{
		Subservice: 1,
		AppData:    actionAppData(7, 99, nil),
	})
	require.NoError(t, err)
	last := sender.sent[len(sender.sent)-1]
	assert.Equal(t, uint8(verification.SubserviceStartFailure), last.Subservice)
}
