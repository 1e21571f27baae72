package telemetrybridge

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLineProtocolRoundTrips(t *testing.T) {
	rec := Record{
		Measurement: "power_bus",
		Tags:        map[string]string{"target_id": "42"},
		Fields:      map[string]interface{}{"voltage": 28.2, "current": int64(1)},
		Time:        time.Unix(1700000000, 0).UTC(),
	}

	buf, err := EncodeLineProtocol(rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(buf), "power_bus,target_id=42"))

	decoded, err := DecodeLineProtocol(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "power_bus", decoded[0].Measurement)
	assert.Equal(t, "42", decoded[0].Tags["target_id"])
}

func TestEncodeLineProtocolRejectsUnsupportedFieldType(t *testing.T) {
	rec := Record{
		Measurement: "m",
		Fields:      map[string]interface{}{"bad": struct{}{}},
		Time:        time.Now(),
	}
	_, err := EncodeLineProtocol(rec)
	assert.Error(t, err)
}

func TestArchiveCodecRoundTrips(t *testing.T) {
	codec, err := NewArchiveCodec()
	require.NoError(t, err)

	rec := Record{
		Measurement: "thermal",
		Tags:        map[string]string{"unique_id": "7"},
		Fields:      map[string]interface{}{"temp_c": 21.5},
		Time:        time.Unix(1700000000, 0).UTC(),
	}

	buf, err := codec.EncodeArchive(rec)
	require.NoError(t, err)

	decoded, err := codec.DecodeArchive(buf)
	require.NoError(t, err)
	assert.Equal(t, "thermal", decoded.Measurement)
	assert.Equal(t, "7", decoded.Tags["unique_id"])
	assert.InDelta(t, 21.5, decoded.Fields["temp_c"], 1e-9)
}
