package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/Ap6pack/PDF-Search-Plus/internal/app"
	"github.com/Ap6pack/PDF-Search-Plus/internal/config"
)

// openSession wires a full application instance for one command invocation.
func openSession() *app.Session {
	session, err := app.Open(config.LoadConfig())
	if err != nil {
		color.Red("failed to start: %v", err)
		os.Exit(1)
	}
	return session
}

// signalContext is canceled on Ctrl-C so long runs stop at the next page
// boundary instead of mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
