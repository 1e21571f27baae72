package housekeeping

import (
	"sync"
	"testing"

	"github.com/skyhaven-space/obsw/internal/hkexpr"
	"github.com/skyhaven-space/obsw/internal/telemetrybridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	measurement string
	uniqueID    uint32
	sample      map[string]float64
}

func (f *fakeSource) Measurement() string             { return f.measurement }
func (f *fakeSource) UniqueID() uint32                 { return f.uniqueID }
func (f *fakeSource) Sample() (map[string]float64, error) { return f.sample, nil }

func TestManagerCollectAppliesDerivationAndFansOutToSinks(t *testing.T) {
	var mu sync.Mutex
	var got []telemetrybridge.Record

	sink := func(rec telemetrybridge.Record) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, rec)
		return nil
	}

	m, err := NewManager([]hkexpr.Definition{
		{Name: "bus_power_w", Expr: "bus_voltage * bus_current"},
	}, sink)
	require.NoError(t, err)

	src := &fakeSource{
		measurement: "power_bus",
		uniqueID:    7,
		sample:      map[string]float64{"bus_voltage": 28.0, "bus_current": 2.0},
	}

	m.collect(src)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "power_bus", got[0].Measurement)
	assert.Equal(t, "7", got[0].Tags["unique_id"])
	assert.InDelta(t, 56.0, got[0].Fields["bus_power_w"].(float64), 1e-9)
}

func TestManagerCollectSkipsOnSampleError(t *testing.T) {
	called := false
	sink := func(rec telemetrybridge.Record) error {
		called = true
		return nil
	}
	m, err := NewManager(nil, sink)
	require.NoError(t, err)

	src := &erroringSource{}
	m.collect(src)
	assert.False(t, called)
}

type erroringSource struct{}

func (e *erroringSource) Measurement() string { return "broken" }
func (e *erroringSource) UniqueID() uint32     { return 1 }
func (e *erroringSource) Sample() (map[string]float64, error) {
	return nil, assertError
}

var assertError = &sampleError{}

type sampleError struct{}

func (e *sampleError) Error() string { return "sample failed" }
