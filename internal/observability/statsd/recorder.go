package statsd

import (
	"maps"
	"sync"
	"time"
)

// Sample is one recorded emission.
type Sample struct {
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder is an in-memory Sink. The admin CLI uses it to print metrics for one-shot
// commands and tests use it to assert emissions.
type Recorder struct {
	mu      sync.Mutex
	counts  []Sample
	gauges  []Sample
	timings []Sample
}

var _ Sink = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(&r.counts, name, float64(value), tags)
}

func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(&r.gauges, name, value, tags)
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(&r.timings, name, float64(value)/float64(time.Millisecond), tags)
}

func (r *Recorder) add(dst *[]Sample, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*dst = append(*dst, Sample{Name: name, Value: value, Tags: maps.Clone(tags)})
}

// Counts returns recorded counters named name.
func (r *Recorder) Counts(name string) []Sample { return r.filter(r.counts, name) }

// Gauges returns recorded gauges named name.
func (r *Recorder) Gauges(name string) []Sample { return r.filter(r.gauges, name) }

// Timings returns recorded timings named name.
func (r *Recorder) Timings(name string) []Sample { return r.filter(r.timings, name) }

// Total sums the counters named name.
func (r *Recorder) Total(name string) int64 {
	var n int64
	for _, s := range r.Counts(name) {
		n += int64(s.Value)
	}
	return n
}

func (r *Recorder) filter(src []Sample, name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range src {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}
