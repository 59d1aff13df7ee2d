// Package domain defines the core types and interfaces for the scan service
package domain

import (
	"time"

	"loopguard/internal/core/repetition"
)

// Record is one text to scan
type Record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Outcome is a scanned record
type Outcome struct {
	Record Record
	Result repetition.Result
	Script string // dominant script of the text, "" when it has no letters
}

// Flagged reports whether any rule fired
func (o Outcome) Flagged() bool { return o.Result.Matched() }

// Summary describes a finished run
type Summary struct {
	Run     string         `json:"run"`
	Scanned int            `json:"scanned"`
	Flagged int            `json:"flagged"`
	ByRule  map[string]int `json:"by_rule"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Add counts o into the summary
func (s *Summary) Add(o Outcome) {
	s.Scanned++
	if !o.Flagged() {
		return
	}
	s.Flagged++
	if s.ByRule == nil {
		s.ByRule = map[string]int{}
	}
	for _, r := range o.Result.Rules() {
		s.ByRule[r]++
	}
}
