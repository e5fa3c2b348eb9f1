package api

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

// scrapeTimeout bounds the protocol lookup made on each scrape.
const scrapeTimeout = 5 * time.Second

type statsKey struct {
	endpoint string
	outcome  string
}

// queryStats counts queries per endpoint and outcome.
type queryStats struct {
	mu     sync.Mutex
	counts map[statsKey]uint64
}

func newQueryStats() *queryStats {
	return &queryStats{counts: make(map[statsKey]uint64)}
}

func (q *queryStats) inc(endpoint, outcome string) {
	q.mu.Lock()
	q.counts[statsKey{endpoint, outcome}]++
	q.mu.Unlock()
}

func (q *queryStats) snapshot() map[statsKey]uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[statsKey]uint64, len(q.counts))
	for k, v := range q.counts {
		out[k] = v
	}
	return out
}

// lgCollector implements prometheus.Collector. Protocol state is read
// from BIRD on each scrape.
type lgCollector struct {
	srv *Server

	queriesTotal    *prometheus.Desc
	queryLogEntries *prometheus.Desc
	protocols       *prometheus.Desc
	birdUp          *prometheus.Desc
}

func newCollector(srv *Server) *lgCollector {
	return &lgCollector{
		srv: srv,
		queriesTotal: prometheus.NewDesc(
			"birdlg_queries_total",
			"Total queries handled, by endpoint and outcome.",
			[]string{"endpoint", "outcome"}, nil,
		),
		queryLogEntries: prometheus.NewDesc(
			"birdlg_query_log_entries",
			"Number of queries held in the in-memory query log.",
			nil, nil,
		),
		protocols: prometheus.NewDesc(
			"birdlg_protocols",
			"BIRD protocols by state.",
			[]string{"state"}, nil,
		),
		birdUp: prometheus.NewDesc(
			"birdlg_bird_up",
			"Whether the last protocol lookup against BIRD succeeded.",
			nil, nil,
		),
	}
}

func (c *lgCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queriesTotal
	ch <- c.queryLogEntries
	ch <- c.protocols
	ch <- c.birdUp
}

func (c *lgCollector) Collect(ch chan<- prometheus.Metric) {
	for k, v := range c.srv.stats.snapshot() {
		ch <- prometheus.MustNewConstMetric(c.queriesTotal, prometheus.CounterValue,
			float64(v), k.endpoint, k.outcome)
	}
	ch <- prometheus.MustNewConstMetric(c.queryLogEntries, prometheus.GaugeValue,
		float64(c.srv.queryLog.Len()))
	c.collectProtocols(ch)
}

func (c *lgCollector) collectProtocols(ch chan<- prometheus.Metric) {
	if c.srv.backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	rows, err := c.srv.backend.Protocols(ctx)
	if err != nil {
		slog.Debug("metrics: protocol lookup failed", "err", err)
		ch <- prometheus.MustNewConstMetric(c.birdUp, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.birdUp, prometheus.GaugeValue, 1)

	byState := make(map[string]int)
	for _, row := range rows {
		state := strings.ToLower(row.State)
		if state == "" {
			state = "unknown"
		}
		byState[state]++
	}
	states := make([]string, 0, len(byState))
	for st := range byState {
		states = append(states, st)
	}
	sort.Strings(states)
	for _, st := range states {
		ch <- prometheus.MustNewConstMetric(c.protocols, prometheus.GaugeValue,
			float64(byState[st]), st)
	}
}
