package domain

import "time"

// HealthState classifies a source's reliability.
type HealthState string

const (
	HealthActive   HealthState = "active"
	HealthDegraded HealthState = "degraded"
	HealthDisabled HealthState = "disabled"
)

// Source is a configured feed or site plus its runtime health. Sources
// are created from static configuration at startup and mutated only by
// the orchestrator after each check; disabling is a state transition,
// never a removal.
type Source struct {
	Identifier          string
	Name                string
	URL                 string
	RSSURL              string
	Mode                FetchMode
	CheckFrequency      time.Duration
	Active              bool
	Health              HealthState
	LastCheckedAt       time.Time
	LastSuccessAt       time.Time
	ConsecutiveFailures int
	TotalArticles       int
}

// Due reports whether the source should be checked at the given time.
// Disabled and inactive sources are never due.
func (s *Source) Due(now time.Time) bool {
	if !s.Active || s.Health == HealthDisabled {
		return false
	}
	if s.LastCheckedAt.IsZero() {
		return true
	}
	return now.Sub(s.LastCheckedAt) >= s.CheckFrequency
}

// HealthThresholds names the consecutive-failure counts at which a
// source degrades and is ultimately disabled.
type HealthThresholds struct {
	Soft int
	Hard int
}

// DefaultThresholds mirrors the shipped configuration defaults.
func DefaultThresholds() HealthThresholds {
	return HealthThresholds{Soft: 3, Hard: 5}
}

// RecordFailure increments the failure counter and walks the state
// machine: ACTIVE -> DEGRADED at the soft threshold, DEGRADED ->
// DISABLED at the hard threshold. DISABLED is terminal until Reactivate.
func (s *Source) RecordFailure(now time.Time, th HealthThresholds) {
	s.LastCheckedAt = now
	if s.Health == HealthDisabled {
		return
	}
	s.ConsecutiveFailures++
	switch {
	case s.ConsecutiveFailures >= th.Hard:
		s.Health = HealthDisabled
	case s.ConsecutiveFailures >= th.Soft:
		s.Health = HealthDegraded
	}
}

// RecordSuccess resets the failure counter and returns a DEGRADED
// source to ACTIVE. A DISABLED source stays disabled; automatic
// recovery is deliberately excluded.
func (s *Source) RecordSuccess(now time.Time, newArticles int) {
	s.LastCheckedAt = now
	if s.Health == HealthDisabled {
		return
	}
	s.LastSuccessAt = now
	s.ConsecutiveFailures = 0
	s.Health = HealthActive
	s.TotalArticles += newArticles
}

// Reactivate is the explicit external reset out of DISABLED.
func (s *Source) Reactivate() {
	s.ConsecutiveFailures = 0
	s.Health = HealthActive
}
