// Package cli implements the fimcache commands.
//
// Command implementations live in their own files:
//   - complete_cmd.go: one-shot completion trigger
//   - select_cmd.go: declaration selection for a cursor prefix
//   - serve.go: long-lived JSON lines session
//   - allow_cmd.go: Allow, Revoke, and List commands
//   - init_cmd.go: Init command
//   - validate.go: Validate command
//   - schema.go: Schema command
//   - status.go: Status command
//
// Common helpers are in helpers.go.
package cli
