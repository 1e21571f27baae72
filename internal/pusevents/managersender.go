package pusevents

import (
	"github.com/skyhaven-space/obsw/internal/events"
	"github.com/skyhaven-space/obsw/internal/telemetry"
)

// ManagerSender adapts a Dispatcher into an events.Sender so it can be
// subscribed to the event manager with SubscribeAll: every event routed
// through the bus also becomes a PUS[5,*] report unless its id has been
// disabled by a PUS Service 5 telecommand.
type ManagerSender struct {
	id        events.SenderID
	dispatch  *Dispatcher
	sink      telemetry.Sender
	timeStamp func() []byte
}

func NewManagerSender(id events.SenderID, dispatcher *Dispatcher, sink telemetry.Sender, timeStamp func() []byte) *ManagerSender {
	return &ManagerSender{id: id, dispatch: dispatcher, sink: sink, timeStamp: timeStamp}
}

func (s *ManagerSender) ID() events.SenderID { return s.id }

func (s *ManagerSender) Send(event events.GenericEvent, aux *events.Params) error {
	var auxRaw []byte
	if aux != nil {
		auxRaw = aux.Raw
	}
	_, err := s.dispatch.GeneratePusEventTM(s.sink, s.timeStamp(), event, auxRaw)
	return err
}

var _ events.Sender = (*ManagerSender)(nil)
