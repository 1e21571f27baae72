// Package housekeeping runs the periodic HK collection jobs: one gocron job
// per registered HKSource, sampling it, running the mission's derived
// parameters over the sample, and fanning the result out to the line
// protocol and archive sinks. This is the periodic-collection counterpart to
// PUS Service 3's request-driven enable/disable/one-shot control surface in
// internal/services.
package housekeeping

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/skyhaven-space/obsw/internal/hkexpr"
	"github.com/skyhaven-space/obsw/internal/telemetrybridge"
	"github.com/skyhaven-space/obsw/pkg/log"
)

// HKSource is one ObjectId-addressable data source the housekeeping
// manager samples on a fixed period. Concrete domain subsystems (attitude,
// power, thermal) implement this alongside services.HKTarget — HKTarget
// handles PUS 3's request-driven control, HKSource handles periodic
// collection.
type HKSource interface {
	Measurement() string
	UniqueID() uint32
	Sample() (map[string]float64, error)
}

// Sink receives every fully-derived HK record. cmd/obsw wires two sinks
// that encode each record as line protocol and as Avro; the encoded bytes
// are not sent or stored anywhere. Tests fake it directly.
type Sink func(telemetrybridge.Record) error

// Manager owns the gocron scheduler driving periodic HK collection.
type Manager struct {
	sched gocron.Scheduler
	eval  *hkexpr.Evaluator
	sinks []Sink
}

func NewManager(defs []hkexpr.Definition, sinks ...Sink) (*Manager, error) {
	eval, err := hkexpr.NewEvaluator(defs)
	if err != nil {
		return nil, err
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("housekeeping: create gocron scheduler: %w", err)
	}
	return &Manager{sched: sched, eval: eval, sinks: sinks}, nil
}

// RegisterSource schedules src to be sampled every interval.
func (m *Manager) RegisterSource(src HKSource, interval time.Duration) error {
	_, err := m.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { m.collect(src) }),
	)
	if err != nil {
		return fmt.Errorf("housekeeping: register source %q: %w", src.Measurement(), err)
	}
	return nil
}

func (m *Manager) collect(src HKSource) {
	raw, err := src.Sample()
	if err != nil {
		log.Warnf("housekeeping: sample %q: %v", src.Measurement(), err)
		return
	}

	derived, err := m.eval.Evaluate(raw)
	if err != nil {
		log.Warnf("housekeeping: derive %q: %v", src.Measurement(), err)
	}

	rec := telemetrybridge.Record{
		Measurement: src.Measurement(),
		Tags:        map[string]string{"unique_id": fmt.Sprintf("%d", src.UniqueID())},
		Fields:      toInterfaceMap(derived),
		Time:        collectionTime(),
	}
	for _, sink := range m.sinks {
		if serr := sink(rec); serr != nil {
			log.Warnf("housekeeping: sink for %q: %v", src.Measurement(), serr)
		}
	}
}

// collectionTime is a seam so tests can stub the sample timestamp.
var collectionTime = time.Now

func toInterfaceMap(m map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *Manager) Start() { m.sched.Start() }

func (m *Manager) Shutdown() error { return m.sched.Shutdown() }
