package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex          sync.RWMutex
	requests       int64
	failedRequests int64
	attempts       map[string]int64
	successes      map[string]int64
	failures       map[string]int64
	failureKinds   map[string]map[string]int64
	attemptTimes   map[string][]time.Duration
	engineHealth   map[string]bool
	startTime      time.Time
}

type Snapshot struct {
	TotalRequests  int64                     `json:"total_requests"`
	FailedRequests int64                     `json:"failed_requests"`
	Uptime         time.Duration             `json:"uptime"`
	Profiles       map[string]ProfileMetrics `json:"profiles"`
	Engines        map[string]bool           `json:"engines"`
}

type ProfileMetrics struct {
	Attempts     int64            `json:"attempts"`
	Successes    int64            `json:"successes"`
	Failures     int64            `json:"failures"`
	FailureKinds map[string]int64 `json:"failure_kinds,omitempty"`
	AvgAttempt   time.Duration    `json:"avg_attempt"`
	P50Attempt   time.Duration    `json:"p50_attempt"`
	P95Attempt   time.Duration    `json:"p95_attempt"`
	P99Attempt   time.Duration    `json:"p99_attempt"`
}

func (m *Metrics) RecordRequest(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests++
	if !success {
		m.failedRequests++
	}
}

func (m *Metrics) RecordAttempt(profile string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.attempts[profile]++
}

func (m *Metrics) RecordSuccess(profile string, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.successes[profile]++
	m.addSample(profile, duration)
}

func (m *Metrics) RecordFailure(profile string, duration time.Duration, kind string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[profile]++
	m.addSample(profile, duration)

	if kind == "" {
		return
	}
	if m.failureKinds[profile] == nil {
		m.failureKinds[profile] = make(map[string]int64)
	}
	m.failureKinds[profile][kind]++
}

func (m *Metrics) UpdateEngineHealth(engine string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.engineHealth[engine] = healthy
}

// addSample keeps the most recent maxSamples durations. Caller holds the lock.
func (m *Metrics) addSample(profile string, duration time.Duration) {
	m.attemptTimes[profile] = append(m.attemptTimes[profile], duration)
	if len(m.attemptTimes[profile]) > maxSamples {
		m.attemptTimes[profile] = m.attemptTimes[profile][1:]
	}
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests:  m.requests,
		FailedRequests: m.failedRequests,
		Uptime:         time.Since(m.startTime),
		Profiles:       make(map[string]ProfileMetrics),
		Engines:        make(map[string]bool, len(m.engineHealth)),
	}

	for engine, healthy := range m.engineHealth {
		snap.Engines[engine] = healthy
	}

	all := make(map[string]bool)
	for p := range m.attempts {
		all[p] = true
	}
	for p := range m.successes {
		all[p] = true
	}
	for p := range m.failures {
		all[p] = true
	}

	for profile := range all {
		pm := ProfileMetrics{
			Attempts:  m.attempts[profile],
			Successes: m.successes[profile],
			Failures:  m.failures[profile],
		}

		if kinds := m.failureKinds[profile]; len(kinds) > 0 {
			pm.FailureKinds = make(map[string]int64, len(kinds))
			for k, v := range kinds {
				pm.FailureKinds[k] = v
			}
		}

		if durations := m.attemptTimes[profile]; len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			pm.AvgAttempt = average(sorted)
			pm.P50Attempt = percentile(sorted, 0.50)
			pm.P95Attempt = percentile(sorted, 0.95)
			pm.P99Attempt = percentile(sorted, 0.99)
		}

		snap.Profiles[profile] = pm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		attempts:     make(map[string]int64),
		successes:    make(map[string]int64),
		failures:     make(map[string]int64),
		failureKinds: make(map[string]map[string]int64),
		attemptTimes: make(map[string][]time.Duration),
		engineHealth: make(map[string]bool),
		startTime:    time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
