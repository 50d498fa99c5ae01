package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetops/sysmgmt/internal/conf"
	"github.com/fleetops/sysmgmt/internal/device"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/logger"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Run the operator device agent",
	Long:  "Maintains the local active-error slot, watches it for changes, and runs the simulated alert scheduler.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, log, err := loadSettings()
		if err != nil {
			return err
		}
		return runDevice(cmd.Context(), settings, log)
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
}

func runDevice(ctx context.Context, settings *conf.Settings, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slot := device.NewSlot(settings.Device.SlotPath)
	rec := device.NewReconciler(slot, log)
	device.Initialize(rec)

	sched := device.NewScheduler(
		settings.Device.SchedulePath,
		settings.Device.ScheduleDays,
		settings.Device.MaxAlertsPerDay,
		rec,
		log,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sched.Run(ctx)
	}()

	// The watch loop is the device UI stand-in: it prints whatever the
	// slot converges to, whichever channel wrote it.
	rec.Watch(ctx, settings.Device.PollInterval.Std(), func(record *device.ActiveError) {
		if record == nil {
			fmt.Println("active error cleared")
			return
		}
		fmt.Printf("active error: [%s] %s %s\n", record.Severity, record.Restaurant, record.Body)
	})

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
