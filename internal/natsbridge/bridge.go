// Package natsbridge relays routed OBSW events onto a ground-segment NATS
// bus, adapting pkg/nats.Client into an events.Sender the Event Manager can
// register like any other listener.
package natsbridge

import (
	"encoding/binary"
	"fmt"

	"github.com/skyhaven-space/obsw/internal/events"
	"github.com/skyhaven-space/obsw/pkg/log"
	obswnats "github.com/skyhaven-space/obsw/pkg/nats"
)

// Publisher is the narrow slice of pkg/nats.Client this bridge depends on,
// so tests can fake it without a live NATS server.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NatsSender publishes every event it receives to SubjectPrefix + ".events",
// wire-encoded as raw_event_id(4) ‖ severity(1) ‖ aux_len(2) ‖ aux.
type NatsSender struct {
	id            events.SenderID
	client        Publisher
	subjectPrefix string
}

func NewNatsSender(id events.SenderID, client Publisher, subjectPrefix string) *NatsSender {
	return &NatsSender{id: id, client: client, subjectPrefix: subjectPrefix}
}

func (s *NatsSender) ID() events.SenderID { return s.id }

func (s *NatsSender) Send(event events.GenericEvent, aux *events.Params) error {
	var auxBytes []byte
	if aux != nil {
		auxBytes = aux.Raw
	}
	if len(auxBytes) > 0xFFFF {
		return fmt.Errorf("natsbridge: aux payload too large (%d bytes)", len(auxBytes))
	}

	buf := make([]byte, 7+len(auxBytes))
	binary.BigEndian.PutUint32(buf[0:4], event.RawAsLargestType())
	buf[4] = byte(event.Severity())
	binary.BigEndian.PutUint16(buf[5:7], uint16(len(auxBytes)))
	copy(buf[7:], auxBytes)

	subject := s.subjectPrefix + ".events"
	if err := s.client.Publish(subject, buf); err != nil {
		return fmt.Errorf("natsbridge: publish to %q: %w", subject, err)
	}
	return nil
}

// Connect dials the NATS server configured via obswnats.Init and returns a
// NatsSender wired to it. Callers that only want the wire-encoding behavior
// without a live connection should build a NatsSender directly against a
// fake Publisher instead.
func Connect(id events.SenderID, subjectPrefix string) (*NatsSender, error) {
	obswnats.Connect()
	client := obswnats.GetClient()
	if client == nil {
		return nil, fmt.Errorf("natsbridge: NATS client not connected")
	}
	log.Infof("natsbridge: publishing events under subject prefix %q", subjectPrefix)
	return NewNatsSender(id, client, subjectPrefix), nil
}
