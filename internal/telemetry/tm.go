// Package telemetry defines the logical telemetry record shared by every TM
// producer — the verification reporter, the PUS event dispatcher, and
// service-handler replies — so all of them hand off to the same sink
// regardless of which PUS service they represent.
package telemetry

// TM is a logical PUS telemetry packet before wire encoding. MsgCount is
// left at zero by producers; the funnel is the single place that assigns
// the real, process-wide monotonic value immediately before the packet goes
// out, so packets from different services still end up in one globally
// ordered sequence (see internal/funnel).
type TM struct {
	Apid       uint16
	DestID     uint16
	Service    uint8
	Subservice uint8
	MsgCount   uint32
	TimeStamp  []byte
	SourceData []byte
}

// Sender is the TM sink every producer depends on. Production code wires it
// to internal/tmsink.Sink, which encodes the record and hands it to the TM
// funnel; tests can fake it directly.
type Sender interface {
	Send(tm TM) error
}
