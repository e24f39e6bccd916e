package status

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Duration holds a time.Duration atomically, zero value ready
type Duration struct {
	v atomic.Int64
}

func (d *Duration) Set(v time.Duration) { d.v.Store(int64(v)) }
func (d *Duration) Get() time.Duration  { return time.Duration(d.v.Load()) }

// Max raises the stored value to v if larger
func (d *Duration) Max(v time.Duration) {
	for {
		old := d.v.Load()
		if int64(v) <= old || d.v.CompareAndSwap(old, int64(v)) {
			return
		}
	}
}

// Gauge is a float64 stored as bits, zero value ready
type Gauge struct {
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }
func (g *Gauge) Get() float64  { return math.Float64frombits(g.bits.Load()) }

// Label is an atomically replaced string, zero value ready
type Label struct {
	ptr atomic.Pointer[string]
}

func (l *Label) Set(v string) { l.ptr.Store(&v) }

func (l *Label) Get() string {
	if p := l.ptr.Load(); p != nil {
		return *p
	}
	return ""
}

// Registry is the metrics facade shared by the loop and its sessions
// Callers cache the pointers returned by the maps
type Registry struct {
	Counters  *MetricMap[atomic.Int64]
	Durations *MetricMap[Duration]
	Gauges    *MetricMap[Gauge]
	Labels    *MetricMap[Label]
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		Counters:  NewMetricMap[atomic.Int64](),
		Durations: NewMetricMap[Duration](),
		Gauges:    NewMetricMap[Gauge](),
		Labels:    NewMetricMap[Label](),
	}
}

// TotalCount returns the number of metrics across all maps
func (r *Registry) TotalCount() int {
	return r.Counters.Count() + r.Durations.Count() + r.Gauges.Count() + r.Labels.Count()
}

// Attrs renders every metric as slog attributes in key order per map
func (r *Registry) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, r.TotalCount())
	r.Counters.Range(func(k string, v *atomic.Int64) {
		attrs = append(attrs, slog.Int64(k, v.Load()))
	})
	r.Durations.Range(func(k string, v *Duration) {
		attrs = append(attrs, slog.Duration(k, v.Get()))
	})
	r.Gauges.Range(func(k string, v *Gauge) {
		attrs = append(attrs, slog.Float64(k, v.Get()))
	})
	r.Labels.Range(func(k string, v *Label) {
		attrs = append(attrs, slog.String(k, v.Get()))
	})
	return attrs
}
