// Package observ provides lightweight timing of analysis phases.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase records the duration of one analysis phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
}

// Timer tracks the execution time of the analysis phases of one run. A nil
// Timer is valid and records nothing.
type Timer struct {
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Phase starts a named phase and returns the function that ends it.
func (t *Timer) Phase(name string) func() {
	if t == nil {
		return func() {}
	}
	idx := len(t.phases)
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return func() {
		p := &t.phases[idx]
		p.Dur = time.Since(p.Start)
	}
}

// PhaseReport is the serializable form of one phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
}

// Report summarizes all tracked phases.
type Report struct {
	Phases  []PhaseReport `json:"phases"`
	TotalMS float64       `json:"total_ms"`
}

// Report builds the summary of all phases recorded so far.
func (t *Timer) Report() Report {
	var r Report
	if t == nil {
		return r
	}
	for _, p := range t.phases {
		ms := float64(p.Dur) / float64(time.Millisecond)
		r.Phases = append(r.Phases, PhaseReport{Name: p.Name, DurationMS: ms})
		r.TotalMS += ms
	}
	return r
}

// Summary returns a human-readable rendering of the report.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-12s %7.2f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(&sb, "  %-12s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}
