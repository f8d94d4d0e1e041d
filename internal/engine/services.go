package engine

// Transition returns the commands that move one axis of a unit from current
// to target. A failed unit is reset first. Nothing is emitted when the states
// already match.
func Transition(unit Service, current, target UnitState) []Command {
	if current == target {
		return nil
	}

	var commands []Command
	if current == StateFailed {
		commands = append(commands, ResetFailed(unit))
	}
	switch target {
	case StateEnabled:
		commands = append(commands, EnableUnit(unit))
	case StateDisabled:
		commands = append(commands, DisableUnit(unit))
	case StateActive:
		commands = append(commands, StartUnit(unit))
	case StateInactive:
		commands = append(commands, StopUnit(unit))
	}
	return commands
}

// ServiceCommands brings both axes of a unit to the wanted state, enablement
// first. Absent units produce no commands.
func ServiceCommands(unit Service, current ServiceStatus, enabled, active bool) []Command {
	if !current.Present {
		return nil
	}
	commands := Transition(unit, current.Enablement, enablement(enabled))
	return append(commands, Transition(unit, current.Activity, activity(active))...)
}

func enablement(enabled bool) UnitState {
	if enabled {
		return StateEnabled
	}
	return StateDisabled
}

func activity(active bool) UnitState {
	if active {
		return StateActive
	}
	return StateInactive
}
