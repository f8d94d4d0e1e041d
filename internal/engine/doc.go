// Package engine computes how to bring a saptune host to a desired tuning.
//
// The engine is a pure function of four inputs:
//
//   - an Inventory: the Notes and Solutions saptune knows, and the member
//     Notes of every Solution,
//   - a Status: what is applied right now and the state of saptune.service,
//     tuned.service and sapconf.service,
//   - an Expression: the desired state as an ordered list of entries,
//   - a Policy: independent boolean switches.
//
// It returns a Plan, an ordered list of saptune and systemctl commands, and the
// effective Target (the Notes that should end up applied and the Solution, if
// any, that is considered in effect). It performs no I/O; running the plan and
// reading the host are the job of the saptune, runner and app packages.
//
// # Expression syntax
//
// Every entry is [-][@]identifier:
//
//	941735      apply Note 941735
//	-941735     revert Note 941735
//	@HANA       apply Solution HANA
//	-@HANA      rejected, Solutions cannot be removed with a minus operator
//
// At most one Solution entry may appear. Untouched() is a separate sentinel
// that skips Note and Solution handling, which is different from the empty
// expression (no tuning at all).
//
// # Plans
//
// Whenever the Note and Solution part of a plan is not empty it starts with
// "saptune revert all" and then replays every effective entry. The engine
// does not try to find a shorter sequence; imitating saptune's own precedence
// rules is not worth the risk.
//
// Example:
//
//	inv := engine.NewInventory(
//		[]string{"941735", "1656250"},
//		[]string{"HANA"},
//		map[string][]string{"HANA": {"941735", "1656250"}},
//	)
//	plan, err := engine.Reconcile(inv, status, engine.MustParseExpression("@HANA"), policy)
//	// plan.Tuning: saptune revert all, saptune solution apply HANA
package engine
