// Package telemetrybridge encodes housekeeping samples for the two
// ground-facing sinks the mission operates side by side: an InfluxDB line
// protocol stream for live dashboards, and an Avro container for the
// long-term archive. Both encoders share the same logical Record so a
// sample is produced once and fanned out to both sinks unchanged.
package telemetrybridge

import "time"

// Record is one housekeeping sample: the target/structure it came from
// (Measurement), its identifying tags, and its sampled/derived fields.
type Record struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Time        time.Time
}
