package natsbridge

import (
	"encoding/binary"
	"testing"

	"github.com/skyhaven-space/obsw/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject string
	data    []byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return nil
}

func TestNatsSenderEncodesEventAndAux(t *testing.T) {
	pub := &fakePublisher{}
	sender := NewNatsSender(1, pub, "obsw.spacecraft1")

	ev := events.NewEventU32(events.SeverityHigh, 3, 42)
	aux := &events.Params{Raw: []byte{0xDE, 0xAD}}

	require.NoError(t, sender.Send(ev, aux))
	assert.Equal(t, "obsw.spacecraft1.events", pub.subject)
	assert.Equal(t, ev.RawAsLargestType(), binary.BigEndian.Uint32(pub.data[0:4]))
	assert.Equal(t, byte(events.SeverityHigh), pub.data[4])
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(pub.data[5:7]))
	assert.Equal(t, []byte{0xDE, 0xAD}, pub.data[7:])
}

func TestNatsSenderHandlesNilAux(t *testing.T) {
	pub := &fakePublisher{}
	sender := NewNatsSender(2, pub, "obsw.spacecraft1")

	require.NoError(t, sender.Send(events.NewEventU16(events.SeverityInfo, 0, 1), nil))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(pub.data[5:7]))
}
