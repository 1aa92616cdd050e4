package events

import (
	"sync"
	"time"
)

// KindMetrics holds delivery metrics for one event kind.
type KindMetrics struct {
	Kind              string
	FirstDelivery     time.Time
	LastDelivery      time.Time
	TotalDeliveries   int64
	TotalFaults       int64
	TotalDuration     time.Duration
	MaxHandleDuration time.Duration
	MinHandleDuration time.Duration
}

// MetricsAggregator collects handling times per event kind.
type MetricsAggregator struct {
	kinds map[string]*KindMetrics
	mu    sync.RWMutex
}

func NewMetricsAggregator() *MetricsAggregator {
	return &MetricsAggregator{
		kinds: make(map[string]*KindMetrics),
	}
}

func (ma *MetricsAggregator) entry(kind string) *KindMetrics {
	m, exists := ma.kinds[kind]
	if !exists {
		m = &KindMetrics{
			Kind:          kind,
			FirstDelivery: time.Now(),
		}
		ma.kinds[kind] = m
	}
	return m
}

// RecordDelivery records one handled event of kind.
func (ma *MetricsAggregator) RecordDelivery(kind string, duration time.Duration) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	m := ma.entry(kind)
	m.TotalDeliveries++
	m.TotalDuration += duration
	m.LastDelivery = time.Now()

	if duration > m.MaxHandleDuration {
		m.MaxHandleDuration = duration
	}
	if m.TotalDeliveries == 1 || duration < m.MinHandleDuration {
		m.MinHandleDuration = duration
	}
}

// RecordFault records a handler panic for kind.
func (ma *MetricsAggregator) RecordFault(kind string) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	ma.entry(kind).TotalFaults++
}

// Kind returns a copy of the metrics for one event kind.
func (ma *MetricsAggregator) Kind(kind string) (KindMetrics, bool) {
	ma.mu.RLock()
	defer ma.mu.RUnlock()

	m, exists := ma.kinds[kind]
	if !exists {
		return KindMetrics{}, false
	}
	return *m, true
}

// Aggregate sums the metrics of every kind seen so far.
func (ma *MetricsAggregator) Aggregate() AggregateMetrics {
	ma.mu.RLock()
	defer ma.mu.RUnlock()

	var aggregate AggregateMetrics
	for _, m := range ma.kinds {
		aggregate.TotalDeliveries += m.TotalDeliveries
		aggregate.TotalFaults += m.TotalFaults
		aggregate.TotalDuration += m.TotalDuration
		aggregate.KindCount++

		if aggregate.StartTime.IsZero() || m.FirstDelivery.Before(aggregate.StartTime) {
			aggregate.StartTime = m.FirstDelivery
		}
		if m.MaxHandleDuration > aggregate.MaxHandleDuration {
			aggregate.MaxHandleDuration = m.MaxHandleDuration
		}
	}

	if aggregate.TotalDeliveries > 0 {
		aggregate.AvgHandleDuration = aggregate.TotalDuration / time.Duration(aggregate.TotalDeliveries)
	}
	if !aggregate.StartTime.IsZero() {
		if runtime := time.Since(aggregate.StartTime); runtime > 0 {
			aggregate.EventsPerSecond = float64(aggregate.TotalDeliveries) / runtime.Seconds()
		}
	}
	return aggregate
}

// AggregateMetrics holds metrics summed across all event kinds.
type AggregateMetrics struct {
	StartTime         time.Time
	KindCount         int
	TotalDeliveries   int64
	TotalFaults       int64
	TotalDuration     time.Duration
	MaxHandleDuration time.Duration
	AvgHandleDuration time.Duration
	EventsPerSecond   float64
}
