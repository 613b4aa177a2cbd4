package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	startedAt     time.Time
	requestCount  map[string]int64
	requestTime   map[string]time.Duration
	errorCount    map[string]int64
	gateDecisions map[string]int64
	events        map[string]int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds    int64            `json:"uptimeSeconds"`
	Requests         map[string]int64 `json:"requests"`
	AvgLatencyMillis map[string]int64 `json:"avgLatencyMillis"`
	Errors           map[string]int64 `json:"errors"`
	GateDecisions    map[string]int64 `json:"gateDecisions"`
	EventsDispatched map[string]int64 `json:"eventsDispatched"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:     time.Now(),
		requestCount:  make(map[string]int64),
		requestTime:   make(map[string]time.Duration),
		errorCount:    make(map[string]int64),
		gateDecisions: make(map[string]int64),
		events:        make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordGateDecision counts access gate outcomes.
func (m *Metrics) RecordGateDecision(decision string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateDecisions[decision]++
}

// RecordEvent counts dispatched domain events.
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventType]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := make(map[string]int64, len(m.requestCount))
	for key, count := range m.requestCount {
		if count > 0 {
			avg[key] = (m.requestTime[key] / time.Duration(count)).Milliseconds()
		}
	}
	return Snapshot{
		UptimeSeconds:    int64(time.Since(m.startedAt).Seconds()),
		Requests:         copyCounts(m.requestCount),
		AvgLatencyMillis: avg,
		Errors:           copyCounts(m.errorCount),
		GateDecisions:    copyCounts(m.gateDecisions),
		EventsDispatched: copyCounts(m.events),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
