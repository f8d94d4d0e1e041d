package engine

import (
	"fmt"
	"slices"
	"sort"
)

// Inventory is the read-only snapshot of the Notes and Solutions saptune knows.
type Inventory struct {
	notes     map[string]struct{}
	solutions map[string][]string
}

// NewInventory builds an inventory. members maps every Solution to its ordered
// member Notes; a Solution listed in solutions but absent from members has no
// members.
func NewInventory(notes []string, solutions []string, members map[string][]string) Inventory {
	inv := Inventory{
		notes:     make(map[string]struct{}, len(notes)),
		solutions: make(map[string][]string, len(solutions)),
	}
	for _, n := range notes {
		inv.notes[n] = struct{}{}
	}
	for _, s := range solutions {
		inv.solutions[s] = slices.Clone(members[s])
	}
	return inv
}

// HasNote reports whether id is a known Note.
func (inv Inventory) HasNote(id string) bool {
	_, ok := inv.notes[id]
	return ok
}

// HasSolution reports whether id is a known Solution.
func (inv Inventory) HasSolution(id string) bool {
	_, ok := inv.solutions[id]
	return ok
}

// SolutionNotes returns the ordered member Notes of a Solution.
func (inv Inventory) SolutionNotes(id string) []string {
	return slices.Clone(inv.solutions[id])
}

// Notes returns the known Note identifiers, sorted.
func (inv Inventory) Notes() []string {
	out := make([]string, 0, len(inv.notes))
	for n := range inv.notes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Solutions returns the known Solution identifiers, sorted.
func (inv Inventory) Solutions() []string {
	out := make([]string, 0, len(inv.solutions))
	for s := range inv.solutions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Service names one of the systemd units the engine manages.
type Service string

const (
	// ServiceSaptune is the primary service.
	ServiceSaptune Service = "saptune.service"
	// ServiceTuned is the competing tuned daemon.
	ServiceTuned Service = "tuned.service"
	// ServiceSapconf is the competing sapconf service.
	ServiceSapconf Service = "sapconf.service"
)

// UnitState is one axis of a systemd unit state: its enablement or its activity.
type UnitState string

const (
	// StateEnabled means the unit starts at boot.
	StateEnabled UnitState = "enabled"
	// StateDisabled means the unit does not start at boot.
	StateDisabled UnitState = "disabled"
	// StateActive means the unit is running.
	StateActive UnitState = "active"
	// StateInactive means the unit is stopped.
	StateInactive UnitState = "inactive"
	// StateFailed means the unit stopped with an error and needs a
	// reset-failed before it can change state.
	StateFailed UnitState = "failed"
)

// ServiceStatus is the state of one unit as reported by saptune.
type ServiceStatus struct {
	// Present is false when the unit is not installed; saptune then reports
	// an empty state list.
	Present    bool      `json:"present"`
	Enablement UnitState `json:"enablement,omitempty"`
	Activity   UnitState `json:"activity,omitempty"`
}

// Enabled reports whether the unit is enabled.
func (s ServiceStatus) Enabled() bool { return s.Enablement == StateEnabled }

// Active reports whether the unit is running.
func (s ServiceStatus) Active() bool { return s.Activity == StateActive }

// Compliance values reported by saptune.
const (
	Compliant    = "compliant"
	NotCompliant = "not compliant"
)

// Status is the current state of the host.
type Status struct {
	// AppliedNotes is ordered; order matters for comparison only.
	AppliedNotes []string `json:"applied_notes"`
	// AppliedSolution is empty when no Solution is applied.
	AppliedSolution string                    `json:"applied_solution,omitempty"`
	Compliance      string                    `json:"compliance"`
	StagingEnabled  bool                      `json:"staging_enabled"`
	Services        map[Service]ServiceStatus `json:"services"`
	SystemDegraded  bool                      `json:"system_degraded"`
	SystemState     string                    `json:"system_state,omitempty"`
}

// Validate checks the fields the engine relies on.
func (s Status) Validate() error {
	primary, ok := s.Services[ServiceSaptune]
	if !ok || !primary.Present {
		return fmt.Errorf("%w: no state reported for %s", ErrStatusUnavailable, ServiceSaptune)
	}
	if primary.Enablement == "" || primary.Activity == "" {
		return fmt.Errorf("%w: incomplete state for %s", ErrStatusUnavailable, ServiceSaptune)
	}
	return nil
}

// NonCompliant reports whether saptune considers the tuning non-compliant.
func (s Status) NonCompliant() bool {
	return s.Compliance == NotCompliant
}

// Policy holds the independent switches controlling a reconciliation.
type Policy struct {
	ForceReapply         bool `json:"force_reapply"`
	IgnoreNonCompliant   bool `json:"ignore_non_compliant"`
	IgnoreDegraded       bool `json:"ignore_degraded"`
	KeepAppliedIfStopped bool `json:"keep_applied_if_stopped"`
	DisableTuned         bool `json:"no_tuned"`
	DisableSapconf       bool `json:"no_sapconf"`
	Enabled              bool `json:"enabled"`
	Started              bool `json:"started"`
	StagingEnabled       bool `json:"staging_enabled"`
}

// Target is the effective state an expression resolves to.
type Target struct {
	Notes    []string `json:"notes"`
	Solution string   `json:"solution,omitempty"`
}
