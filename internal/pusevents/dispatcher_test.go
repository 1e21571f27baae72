package pusevents

import (
	"testing"

	"github.com/skyhaven-space/obsw/internal/events"
	"github.com/skyhaven-space/obsw/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []telemetry.TM
}

func (f *fakeSender) Send(tm telemetry.TM) error {
	f.sent = append(f.sent, tm)
	return nil
}

func TestGeneratePusEventTMUsesEventsOwnSeverity(t *testing.T) {
	d := NewDispatcher(Config{Apid: 1, DestID: 1})
	sink := &fakeSender{}
	ev := events.NewEventU32(events.SeverityMedium, 1, 7)

	ok, err := d.GeneratePusEventTM(sink, []byte{0}, ev, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, uint8(SubserviceMedium), sink.sent[0].Subservice)
}

func TestSeverityMismatchRejected(t *testing.T) {
	d := NewDispatcher(Config{Apid: 1, DestID: 1})
	sink := &fakeSender{}
	ev := events.NewEventU32(events.SeverityHigh, 1, 7)

	ok, err := d.GenerateInfoEventTM(sink, []byte{0}, ev, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrSeverityMismatch)
	assert.Empty(t, sink.sent)
}

func TestDisabledEventIsNotReported(t *testing.T) {
	d := NewDispatcher(Config{Apid: 1, DestID: 1})
	sink := &fakeSender{}
	ev := events.NewEventU32(events.SeverityInfo, 1, 7)

	d.Disable(ev)
	ok, err := d.GeneratePusEventTM(sink, []byte{0}, ev, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sink.sent)

	d.Enable(ev)
	ok, err = d.GeneratePusEventTM(sink, []byte{0}, ev, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
