package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchReachesSingleGroupAndAll(t *testing.T) {
	m := NewManager()
	single := NewVecSender(1)
	group := NewVecSender(2)
	all := NewVecSender(3)
	m.AddSender(single)
	m.AddSender(group)
	m.AddSender(all)

	ev := NewEventU32(SeverityHigh, 7, 42)
	m.SubscribeSingle(1, ev)
	m.SubscribeGroup(2, 7)
	m.SubscribeAll(3)

	res := m.TryHandleEvent(ev, nil)
	assert.Equal(t, 3, res.Delivered)
	assert.Empty(t, res.Errors)

	require.Len(t, single.Deliveries(), 1)
	require.Len(t, group.Deliveries(), 1)
	require.Len(t, all.Deliveries(), 1)
}

func TestSubscribeAccumulatesUntilRemoveDuplicates(t *testing.T) {
	m := NewManager()
	sender := NewVecSender(1)
	m.AddSender(sender)

	ev := NewEventU16(SeverityInfo, 1, 1)
	m.SubscribeSingle(1, ev)
	m.SubscribeSingle(1, ev)

	res := m.TryHandleEvent(ev, nil)
	assert.Equal(t, 2, res.Delivered, "duplicate subscriptions are not deduplicated until RemoveDuplicates runs")

	m.RemoveDuplicates()
	res = m.TryHandleEvent(ev, nil)
	assert.Equal(t, 1, res.Delivered)
}

type failingSender struct {
	id SenderID
}

func (f failingSender) ID() SenderID { return f.id }
func (f failingSender) Send(GenericEvent, *Params) error {
	return assert.AnError
}

func TestRouteErrorsAreCapped(t *testing.T) {
	m := NewManager()
	ev := NewEventU32(SeverityLow, 0, 1)
	for i := SenderID(1); i <= 5; i++ {
		m.AddSender(failingSender{id: i})
		m.SubscribeAll(i)
	}

	res := m.TryHandleEvent(ev, nil)
	assert.Equal(t, 0, res.Delivered)
	assert.Len(t, res.Errors, maxRouteErrors)
}

func TestSubscribedSenderMissingRecordsError(t *testing.T) {
	m := NewManager()
	ev := NewEventU16(SeverityInfo, 0, 9)
	m.SubscribeSingle(9, ev)

	res := m.TryHandleEvent(ev, nil)
	assert.Equal(t, 0, res.Delivered)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, SenderID(9), res.Errors[0].SenderID)
	assert.ErrorIs(t, res.Errors[0].Err, ErrNoSenderForID)
}
