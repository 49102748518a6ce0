// Package metricstest provides an in-memory metrics sink for tests.
package metricstest

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
)

// Sample is one recorded observation.
type Sample struct {
	Name  string
	Value float64
	Tags  metrics.Tags
}

// Memory records every sample it receives.
type Memory struct {
	mu      sync.Mutex
	samples []Sample
}

func New() *Memory { return &Memory{} }

func (m *Memory) Count(name string, value int64, tags metrics.Tags) {
	m.add(Sample{Name: name, Value: float64(value), Tags: tags})
}

func (m *Memory) Timing(name string, d time.Duration, tags metrics.Tags) {
	m.add(Sample{Name: name, Value: d.Seconds(), Tags: tags})
}

func (m *Memory) Gauge(name string, value float64, tags metrics.Tags) {
	m.add(Sample{Name: name, Value: value, Tags: tags})
}

func (m *Memory) add(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, s)
}

// Samples returns every sample whose name starts with prefix.
func (m *Memory) Samples(prefix string) []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sample
	for _, s := range m.samples {
		if strings.HasPrefix(s.Name, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// Total sums the values recorded under exactly name.
func (m *Memory) Total(name string) float64 {
	var sum float64
	for _, s := range m.Samples(name) {
		if s.Name == name {
			sum += s.Value
		}
	}
	return sum
}

// Names lists distinct sample names, sorted.
func (m *Memory) Names() []string {
	seen := map[string]bool{}
	for _, s := range m.Samples("") {
		seen[s.Name] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
