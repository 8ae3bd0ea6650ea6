// Package ui renders wpd's operator-facing output with Lip Gloss.
//
// PhaseDisplay prints one line per recipe as it starts and finishes:
//
//	● deploy on admin1 (12.4s)
//	✗ load_db on admin1 (0.8s)
//
// Echo prints each external command before it runs, prefixed with the host
// it runs on:
//
//	[admin1] run: git pull origin 'stable'
//
// Commands are echoed in their redacted display form; secrets never reach
// this package. Use DisableColors() for --no-color.
package ui
