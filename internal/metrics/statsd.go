package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
)

// StatsD pushes samples over UDP to a StatsD collector.
type StatsD struct {
	client statsd.Statter
}

// NewStatsD connects to addr (host:port). A trailing dot on prefix is
// dropped because the client adds its own separator.
func NewStatsD(addr, prefix string) (*StatsD, error) {
	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address:       addr,
		Prefix:        strings.TrimSuffix(prefix, "."),
		UseBuffered:   true,
		FlushInterval: 300 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return &StatsD{client: client}, nil
}

// Send failures are dropped; UDP delivery is best effort.

func (s *StatsD) Count(name string, value int64, tags Tags) {
	_ = s.client.Inc(name, value, 1.0, statsdTags(tags)...)
}

func (s *StatsD) Timing(name string, d time.Duration, tags Tags) {
	_ = s.client.TimingDuration(name, d, 1.0, statsdTags(tags)...)
}

func (s *StatsD) Gauge(name string, value float64, tags Tags) {
	_ = s.client.Gauge(name, int64(math.Round(value)), 1.0, statsdTags(tags)...)
}

func (s *StatsD) Close() error {
	return s.client.Close()
}

func statsdTags(tags Tags) []statsd.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]statsd.Tag, 0, len(tags))
	for k, v := range tags {
		out = append(out, statsd.Tag{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
