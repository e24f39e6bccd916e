package status

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsSamePointer(t *testing.T) {
	r := NewRegistry()
	a := r.Counters.Get("events.tick")
	b := r.Counters.Get("events.tick")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.TotalCount())
}

func TestConcurrentCounters(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Counters.Get("n").Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), r.Counters.Get("n").Load())
}

func TestDurationMax(t *testing.T) {
	var d Duration
	d.Max(5 * time.Millisecond)
	d.Max(2 * time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, d.Get())
}

func TestAttrsSorted(t *testing.T) {
	r := NewRegistry()
	r.Counters.Get("b").Store(2)
	r.Counters.Get("a").Store(1)
	r.Gauges.Get("g").Set(0.5)
	r.Labels.Get("repo").Set("/r")
	r.Durations.Get("d").Set(time.Second)

	attrs := r.Attrs()
	keys := make([]string, len(attrs))
	for i, a := range attrs {
		keys[i] = a.Key
	}
	assert.Equal(t, []string{"a", "b", "d", "g", "repo"}, keys)
	assert.Equal(t, slog.StringValue("/r").String(), attrs[4].Value.String())
}
