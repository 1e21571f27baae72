package telemetrybridge

import (
	"fmt"
	"sort"
	"time"

	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
)

// EncodeLineProtocol renders rec as one InfluxDB line protocol line, tags
// sorted the way the wire format requires, fields in map iteration order
// (line protocol doesn't order fields, only tags).
func EncodeLineProtocol(rec Record) ([]byte, error) {
	var enc influx.Encoder
	enc.SetPrecision(influx.Nanosecond)
	enc.StartLine(rec.Measurement)
	tagKeys := make([]string, 0, len(rec.Tags))
	for k := range rec.Tags {
		tagKeys = append(tagKeys, k)
	}
	sort.Strings(tagKeys)
	for _, k := range tagKeys {
		enc.AddTag(k, rec.Tags[k])
	}
	for k, v := range rec.Fields {
		lv, ok := influx.NewValue(v)
		if !ok {
			return nil, fmt.Errorf("telemetrybridge: field %q has unsupported line-protocol type %T", k, v)
		}
		enc.AddField(k, lv)
	}
	enc.EndLine(rec.Time)
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("telemetrybridge: encode line protocol: %w", err)
	}
	return append([]byte(nil), enc.Bytes()...), nil
}

// DecodeLineProtocol parses every line in data, used by replay tooling that
// reads an archived HK stream back out.
func DecodeLineProtocol(data []byte) ([]Record, error) {
	dec := influx.NewDecoderWithBytes(data)
	var out []Record
	for dec.Next() {
		rec, err := decodeOne(dec)
		if err != nil {
			return out, fmt.Errorf("telemetrybridge: decode line protocol: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeOne(d *influx.Decoder) (Record, error) {
	measurement, err := d.Measurement()
	if err != nil {
		return Record{}, err
	}

	tags := make(map[string]string)
	for {
		key, value, err := d.NextTag()
		if err != nil {
			return Record{}, err
		}
		if key == nil {
			break
		}
		tags[string(key)] = string(value)
	}

	fields := make(map[string]interface{})
	for {
		key, value, err := d.NextField()
		if err != nil {
			return Record{}, err
		}
		if key == nil {
			break
		}
		fields[string(key)] = value.Interface()
	}

	t, err := d.Time(influx.Nanosecond, time.Time{})
	if err != nil {
		return Record{}, err
	}

	return Record{
		Measurement: string(measurement),
		Tags:        tags,
		Fields:      fields,
		Time:        t,
	}, nil
}
