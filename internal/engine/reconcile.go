package engine

import (
	"fmt"
	"slices"
)

// Decision explains why the tuning part of a plan is or is not empty.
type Decision string

const (
	// DecisionUntouched means the expression asked to leave tuning alone.
	DecisionUntouched Decision = "untouched"
	// DecisionNothingApplied means nothing is applied and nothing is wanted.
	DecisionNothingApplied Decision = "nothing-applied"
	// DecisionInSync means the effective state is already applied.
	DecisionInSync Decision = "in-sync"
	// DecisionChanged means the effective state differs from the applied one.
	DecisionChanged Decision = "changed"
	// DecisionForced means force_reapply demanded a full reapply.
	DecisionForced Decision = "forced"
	// DecisionNonCompliant means the state matches but the host drifted from it.
	DecisionNonCompliant Decision = "non-compliant"
)

// TuningPlan is the Note and Solution part of a plan.
type TuningPlan struct {
	Commands []Command
	Target   Target
	Decision Decision
}

// PlanTuning computes the Note and Solution commands for one status snapshot.
//
// When a plan is needed it always starts with a full revert followed by the
// command of every effective entry: no attempt is made to derive a minimal
// transition from the applied state.
func PlanTuning(inv Inventory, status Status, expr Expression, policy Policy) (TuningPlan, error) {
	if expr.IsUntouched() {
		return TuningPlan{
			Target:   Target{Notes: nonNil(status.AppliedNotes), Solution: status.AppliedSolution},
			Decision: DecisionUntouched,
		}, nil
	}

	target, commands, err := Resolve(inv, expr)
	if err != nil {
		return TuningPlan{}, err
	}

	if len(status.AppliedNotes) == 0 && len(target.Notes) == 0 {
		return TuningPlan{Target: target, Decision: DecisionNothingApplied}, nil
	}

	inSync := target.Solution == status.AppliedSolution && slices.Equal(target.Notes, status.AppliedNotes)

	var decision Decision
	switch {
	case policy.ForceReapply:
		decision = DecisionForced
	case !inSync:
		decision = DecisionChanged
	case !policy.IgnoreNonCompliant && status.NonCompliant():
		decision = DecisionNonCompliant
	default:
		return TuningPlan{Target: target, Decision: DecisionInSync}, nil
	}

	return TuningPlan{
		Commands: append([]Command{RevertAll()}, commands...),
		Target:   target,
		Decision: decision,
	}, nil
}

// Plan is the ordered command plan of one reconciliation.
type Plan struct {
	// Pre holds staging, competing services and the primary unit's enablement,
	// plus the early stop of the primary unit when requested.
	Pre []Command `json:"pre"`
	// Tuning holds the Note and Solution commands.
	Tuning []Command `json:"tuning"`
	// Post holds the primary unit's start or stop.
	Post []Command `json:"post"`

	Target   Target   `json:"target"`
	Decision Decision `json:"decision"`

	// StoppedEarly is set when Pre stops the primary unit. Stopping it reverts
	// the tuning, so Tuning was computed against a status with nothing applied
	// and has to be recomputed from a fresh status once Pre has run.
	StoppedEarly bool `json:"stopped_early"`
}

// Commands returns Pre, Tuning and Post in execution order.
func (p Plan) Commands() []Command {
	out := make([]Command, 0, len(p.Pre)+len(p.Tuning)+len(p.Post))
	out = append(out, p.Pre...)
	out = append(out, p.Tuning...)
	return append(out, p.Post...)
}

// Empty reports whether the plan has no commands at all.
func (p Plan) Empty() bool {
	return len(p.Pre) == 0 && len(p.Tuning) == 0 && len(p.Post) == 0
}

// WithTuning returns a copy of p whose tuning part is replaced by tp.
func (p Plan) WithTuning(tp TuningPlan) Plan {
	p.Tuning = tp.Commands
	p.Target = tp.Target
	p.Decision = tp.Decision
	return p
}

// Reconcile computes the full plan bringing the host from status to the
// state described by expr and policy. It is pure and deterministic.
//
// Command order: staging, tuned, sapconf, enablement of saptune.service, the
// early stop of saptune.service (KeepAppliedIfStopped with Started unset),
// the tuning commands, and finally the start or stop of saptune.service.
func Reconcile(inv Inventory, status Status, expr Expression, policy Policy) (Plan, error) {
	if err := status.Validate(); err != nil {
		return Plan{}, err
	}

	var plan Plan
	if status.StagingEnabled != policy.StagingEnabled {
		plan.Pre = append(plan.Pre, StagingCommand(policy.StagingEnabled))
	}
	if policy.DisableTuned {
		plan.Pre = append(plan.Pre, ServiceCommands(ServiceTuned, status.Services[ServiceTuned], false, false)...)
	}
	if policy.DisableSapconf {
		plan.Pre = append(plan.Pre, ServiceCommands(ServiceSapconf, status.Services[ServiceSapconf], false, false)...)
	}

	primary := status.Services[ServiceSaptune]
	plan.Pre = append(plan.Pre, Transition(ServiceSaptune, primary.Enablement, enablement(policy.Enabled))...)

	tuningStatus := status
	stopHandled := policy.KeepAppliedIfStopped && !policy.Started
	if stopHandled {
		stop := Transition(ServiceSaptune, primary.Activity, StateInactive)
		if len(stop) > 0 {
			plan.Pre = append(plan.Pre, stop...)
			plan.StoppedEarly = true
			tuningStatus = ProjectStopped(status)
		}
	}

	tp, err := PlanTuning(inv, tuningStatus, expr, policy)
	if err != nil {
		return Plan{}, err
	}
	plan = plan.WithTuning(tp)

	if !stopHandled {
		plan.Post = Transition(ServiceSaptune, primary.Activity, activity(policy.Started))
	}
	return plan, nil
}

// ProjectStopped returns the status expected right after saptune.service was
// stopped: the service is inactive and no tuning is applied any more.
func ProjectStopped(status Status) Status {
	projected := status
	projected.AppliedNotes = nil
	projected.AppliedSolution = ""
	projected.Compliance = ""
	projected.Services = make(map[Service]ServiceStatus, len(status.Services))
	for name, svc := range status.Services {
		projected.Services[name] = svc
	}
	primary := projected.Services[ServiceSaptune]
	primary.Activity = StateInactive
	projected.Services[ServiceSaptune] = primary
	return projected
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

// Summary renders a one-line description of the plan for logs.
func (p Plan) Summary() string {
	return fmt.Sprintf("%d command(s), tuning %s, target notes=%v solution=%q",
		len(p.Commands()), p.Decision, p.Target.Notes, p.Target.Solution)
}
