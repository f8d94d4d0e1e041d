package saptune

import (
	"encoding/json"
	"errors"
	"fmt"

	"saptunectl/internal/engine"
)

// rawStatus mirrors the subset of the status payload the engine needs.
type rawStatus struct {
	Services        map[string][]string `json:"services"`
	SystemState     string              `json:"systemd system state"`
	TuningState     string              `json:"tuning state"`
	SolutionApplied []solutionRef       `json:"Solution applied"`
	NotesApplied    []string            `json:"Notes applied"`
	Staging         *stagingState       `json:"staging"`
}

type stagingState struct {
	Enabled bool `json:"staging enabled"`
}

// solutionRef is an entry of "Solution applied". Depending on the saptune
// release it is either the bare Solution ID or an object carrying it.
type solutionRef struct {
	ID string
}

func (s *solutionRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		s.ID = id
		return nil
	}
	var obj struct {
		ID string `json:"Solution ID"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unexpected Solution entry %s", string(data))
	}
	s.ID = obj.ID
	return nil
}

// serviceKeys maps the keys of the "services" object to unit names.
var serviceKeys = map[string]engine.Service{
	"saptune": engine.ServiceSaptune,
	"tuned":   engine.ServiceTuned,
	"sapconf": engine.ServiceSapconf,
}

func decodeStatus(raw json.RawMessage) (engine.Status, error) {
	var rs rawStatus
	if err := json.Unmarshal(raw, &rs); err != nil {
		return engine.Status{}, err
	}
	if rs.Services == nil {
		return engine.Status{}, errors.New("no services reported")
	}
	if rs.Staging == nil {
		return engine.Status{}, errors.New("no staging state reported")
	}

	status := engine.Status{
		AppliedNotes:   rs.NotesApplied,
		Compliance:     rs.TuningState,
		StagingEnabled: rs.Staging.Enabled,
		Services:       make(map[engine.Service]engine.ServiceStatus, len(serviceKeys)),
		SystemDegraded: rs.SystemState == "degraded",
		SystemState:    rs.SystemState,
	}
	if status.AppliedNotes == nil {
		status.AppliedNotes = []string{}
	}
	if len(rs.SolutionApplied) > 0 {
		status.AppliedSolution = rs.SolutionApplied[0].ID
	}

	for key, unit := range serviceKeys {
		states, ok := rs.Services[key]
		if !ok {
			continue
		}
		svc, err := decodeService(states)
		if err != nil {
			return engine.Status{}, fmt.Errorf("service %s: %w", key, err)
		}
		status.Services[unit] = svc
	}
	return status, nil
}

// decodeService turns saptune's [enablement, activity] pair into a
// ServiceStatus. An empty list means the unit is not installed.
func decodeService(states []string) (engine.ServiceStatus, error) {
	switch len(states) {
	case 0:
		return engine.ServiceStatus{}, nil
	case 2:
		return engine.ServiceStatus{
			Present:    true,
			Enablement: engine.UnitState(states[0]),
			Activity:   engine.UnitState(states[1]),
		}, nil
	default:
		return engine.ServiceStatus{}, fmt.Errorf("unexpected state list %v", states)
	}
}
