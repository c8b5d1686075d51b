//go:build windows
// +build windows

package app

import "context"

// SIGUSR1 does not exist on Windows, so signal-driven log rotation is
// unsupported there.
func (a *App) listenSignals(ctx context.Context) {
	<-ctx.Done()
}
