// Package app wires saptunectl together: it loads the configuration, sets up
// logging and creates the services the commands use.
//
// # Components
//
//   - Application (bootstrap.go): initialization and the operations exposed
//     to the CLI (apply, status, inventory, history, watch)
//   - Config (config.go): runtime settings and flag overrides
//   - Services (services.go): command runner, saptune client, executor and
//     run record storage
//   - Executor (executor.go): one reconciliation cycle against the host
//   - watch mode (modes.go): the reconcile manager driven by file changes,
//     resync and signals
//
// # Reconciliation Cycle
//
// A cycle runs these steps in order and stops at the first error:
//
//  1. Parse the desired-state expression; nothing is read from the host
//     for a malformed one.
//  2. Read the status, with the compliance check unless non-compliance is
//     ignored.
//  3. List the Notes and Solutions, unless the tuning is left untouched.
//  4. Compute the plan.
//  5. In check mode, return the plan. Otherwise execute it command by
//     command. When the plan stops saptune.service early, the status is
//     read again after the stop and the tuning part is planned anew.
//  6. If any command ran, read the status again with the compliance check
//     and verify compliance and the systemd system state.
//
// Each executed cycle is stored as a YAML run record below
// state_dir/runs when a state directory is configured.
package app
