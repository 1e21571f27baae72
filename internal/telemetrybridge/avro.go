package telemetrybridge

import (
	"fmt"
	"time"

	"github.com/linkedin/goavro/v2"
)

// archiveSchema is the long-term HK archive's fixed Avro record: one
// sample per record, tags and fields flattened to string-keyed maps since
// the schema can't know a mission's parameter set up front.
const archiveSchema = `{
  "type": "record",
  "name": "HkSample",
  "fields": [
    {"name": "measurement", "type": "string"},
    {"name": "time_unix_nanos", "type": "long"},
    {"name": "tags", "type": {"type": "map", "values": "string"}},
    {"name": "fields", "type": {"type": "map", "values": "double"}}
  ]
}`

// ArchiveCodec wraps the compiled Avro codec for the HK archive. Built once
// at startup and reused for every sample — goavro codec compilation isn't
// free and the schema never changes at runtime.
type ArchiveCodec struct {
	codec *goavro.Codec
}

func NewArchiveCodec() (*ArchiveCodec, error) {
	codec, err := goavro.NewCodec(archiveSchema)
	if err != nil {
		return nil, fmt.Errorf("telemetrybridge: compile archive schema: %w", err)
	}
	return &ArchiveCodec{codec: codec}, nil
}

// EncodeArchive renders rec as Avro binary. Non-numeric fields are dropped
// with an error collected (not aborted) so one bad field doesn't lose the
// whole sample on its way into the archive.
func (c *ArchiveCodec) EncodeArchive(rec Record) ([]byte, error) {
	fields := make(map[string]interface{}, len(rec.Fields))
	var firstErr error
	for k, v := range rec.Fields {
		f, err := toFloat64(v)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("telemetrybridge: archive field %q: %w", k, err)
			}
			continue
		}
		fields[k] = f
	}

	native := map[string]interface{}{
		"measurement":     rec.Measurement,
		"time_unix_nanos": rec.Time.UnixNano(),
		"tags":            stringMap(rec.Tags),
		"fields":          fields,
	}

	buf, err := c.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("telemetrybridge: encode archive record: %w", err)
	}
	return buf, firstErr
}

// DecodeArchive parses one Avro-encoded archive record back into a Record.
func (c *ArchiveCodec) DecodeArchive(buf []byte) (Record, error) {
	native, _, err := c.codec.NativeFromBinary(buf)
	if err != nil {
		return Record{}, fmt.Errorf("telemetrybridge: decode archive record: %w", err)
	}
	m, ok := native.(map[string]interface{})
	if !ok {
		return Record{}, fmt.Errorf("telemetrybridge: unexpected decoded type %T", native)
	}

	rec := Record{
		Measurement: m["measurement"].(string),
		Tags:        make(map[string]string),
		Fields:      make(map[string]interface{}),
	}
	rec.Time = unixNanoTime(m["time_unix_nanos"].(int64))
	for k, v := range m["tags"].(map[string]interface{}) {
		rec.Tags[k] = v.(string)
	}
	for k, v := range m["fields"].(map[string]interface{}) {
		rec.Fields[k] = v.(float64)
	}
	return rec, nil
}

func unixNanoTime(ns int64) time.Time { return time.Unix(0, ns).UTC() }

func stringMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported field type %T", v)
	}
}
