// Package timeouts holds the durations the sheet server and its clients agree
// on.
package timeouts

import "time"

// GRPCDial caps the wait for a sheet server to report healthy.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single call from the CLI to a sheet server.
const GRPCRequest = 2 * time.Second

// Shutdown caps graceful server stop and the final span flush.
const Shutdown = 5 * time.Second
