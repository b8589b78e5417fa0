package workspace

import (
	"sync"

	"github.com/Sumatoshi-tech/bslcheck/pkg/rebuild"
)

// Stats accumulates incremental-rebuild telemetry across a session. All
// methods are safe for concurrent use.
type Stats struct {
	mu sync.Mutex

	plansByReason map[rebuild.Reason]int
	fullParses    int
	selective     int
	fallbacks     int
	replaced      int
	innerReused   int
	innerTotal    int
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	PlansByReason    map[rebuild.Reason]int `json:"plansByReason"`
	FullParses       int                    `json:"fullParses"`
	SelectiveUpdates int                    `json:"selectiveUpdates"`
	Fallbacks        int                    `json:"fallbacks"`
	RoutinesReplaced int                    `json:"routinesReplaced"`
	InnerReused      int                    `json:"innerReused"`
	InnerTotal       int                    `json:"innerTotal"`
}

// ReuseRatio is the fraction of inner nodes of replaced routines that were
// structurally unchanged, 0 when nothing was replaced yet.
func (s StatsSnapshot) ReuseRatio() float64 {
	if s.InnerTotal == 0 {
		return 0
	}

	return float64(s.InnerReused) / float64(s.InnerTotal)
}

func newStats() *Stats {
	return &Stats{plansByReason: make(map[rebuild.Reason]int)}
}

func (s *Stats) recordFullParse() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fullParses++
}

func (s *Stats) recordUpdate(plan rebuild.Plan, res rebuild.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plansByReason[plan.Reason]++
	s.selective++
	if res.FallbackUsed {
		s.fallbacks++
	}
	s.replaced += res.Replaced
	s.innerReused += res.InnerReused
	s.innerTotal += res.InnerTotal
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byReason := make(map[rebuild.Reason]int, len(s.plansByReason))
	for k, v := range s.plansByReason {
		byReason[k] = v
	}

	return StatsSnapshot{
		PlansByReason:    byReason,
		FullParses:       s.fullParses,
		SelectiveUpdates: s.selective,
		Fallbacks:        s.fallbacks,
		RoutinesReplaced: s.replaced,
		InnerReused:      s.innerReused,
		InnerTotal:       s.innerTotal,
	}
}
