// Package saptune reads the inventory and the status of a host through the
// saptune command line interface.
//
// Every read uses saptune's JSON output (`saptune --format json ...`), which
// wraps the payload in an envelope:
//
//	{"exit code": 0, "result": {...}, "messages": [...]}
//
// The client decodes the envelope into the engine's Inventory and Status
// types. It never changes the host.
package saptune
