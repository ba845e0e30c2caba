package main

import (
	"context"
	"fmt"
	"os"

	"prospect-sync/cmd/prospect-cli/commands"
	"prospect-sync/lib/serviceutil"
	"prospect-sync/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	err := telemetry.SetupFromEnv(ctx, "prospect-cli")
	if err == nil {
		telemetry.InstrumentPerfStats(ctx)
	} else if !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	err = commands.ExecuteContext(ctx)
	if shutdownErr := telemetry.Shutdown(context.Background()); shutdownErr != nil {
		fmt.Fprintln(os.Stderr, shutdownErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
