package engine

import "strings"

// CommandKind classifies a plan command.
type CommandKind string

// Command kinds, one per saptune or systemctl invocation the engine emits.
const (
	KindRevertAll      CommandKind = "revert-all"
	KindApplyNote      CommandKind = "apply-note"
	KindRevertNote     CommandKind = "revert-note"
	KindApplySolution  CommandKind = "apply-solution"
	KindStagingEnable  CommandKind = "staging-enable"
	KindStagingDisable CommandKind = "staging-disable"
	KindResetFailed    CommandKind = "reset-failed"
	KindEnable         CommandKind = "enable"
	KindDisable        CommandKind = "disable"
	KindStart          CommandKind = "start"
	KindStop           CommandKind = "stop"
)

// Saptune and Systemctl are the executables plan commands invoke.
const (
	Saptune   = "saptune"
	Systemctl = "systemctl"
)

// Command is one external command of a plan.
type Command struct {
	Kind CommandKind `json:"kind"`
	// Target is the Note, Solution or unit the command acts on, if any.
	Target string `json:"target,omitempty"`
}

// RevertAll reverts every applied Note and Solution.
func RevertAll() Command { return Command{Kind: KindRevertAll} }

// ApplyNote applies a single Note.
func ApplyNote(id string) Command { return Command{Kind: KindApplyNote, Target: id} }

// RevertNote reverts a single Note.
func RevertNote(id string) Command { return Command{Kind: KindRevertNote, Target: id} }

// ApplySolution applies a Solution and its member Notes.
func ApplySolution(id string) Command { return Command{Kind: KindApplySolution, Target: id} }

// ResetFailed clears the failed state of unit.
func ResetFailed(unit Service) Command { return Command{Kind: KindResetFailed, Target: string(unit)} }

// EnableUnit enables unit at boot.
func EnableUnit(unit Service) Command { return Command{Kind: KindEnable, Target: string(unit)} }

// DisableUnit disables unit at boot.
func DisableUnit(unit Service) Command { return Command{Kind: KindDisable, Target: string(unit)} }

// StartUnit starts unit.
func StartUnit(unit Service) Command { return Command{Kind: KindStart, Target: string(unit)} }

// StopUnit stops unit.
func StopUnit(unit Service) Command { return Command{Kind: KindStop, Target: string(unit)} }

// StagingCommand switches saptune staging on or off.
func StagingCommand(enable bool) Command {
	if enable {
		return Command{Kind: KindStagingEnable}
	}
	return Command{Kind: KindStagingDisable}
}

// Argv renders the command line.
func (c Command) Argv() []string {
	switch c.Kind {
	case KindRevertAll:
		return []string{Saptune, "revert", "all"}
	case KindApplyNote:
		return []string{Saptune, "note", "apply", c.Target}
	case KindRevertNote:
		return []string{Saptune, "note", "revert", c.Target}
	case KindApplySolution:
		return []string{Saptune, "solution", "apply", c.Target}
	case KindStagingEnable:
		return []string{Saptune, "staging", "enable"}
	case KindStagingDisable:
		return []string{Saptune, "staging", "disable"}
	case KindResetFailed:
		return []string{Systemctl, "reset-failed", c.Target}
	case KindEnable, KindDisable, KindStart, KindStop:
		return []string{Systemctl, string(c.Kind), c.Target}
	default:
		return nil
	}
}

// String returns the command line joined by spaces.
func (c Command) String() string {
	return strings.Join(c.Argv(), " ")
}

// Tuning reports whether the command changes Notes or Solutions.
func (c Command) Tuning() bool {
	switch c.Kind {
	case KindRevertAll, KindApplyNote, KindRevertNote, KindApplySolution:
		return true
	}
	return false
}
