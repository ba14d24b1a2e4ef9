package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/spotify_remote/internal/core"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

func watchCommand() *cobra.Command {
	var events []string
	cmd := &cobra.Command{
		Use:   "watch [bridge]",
		Short: "Stream bridge events until interrupted",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stream, errs, err := app.service.Watch(ctx, selector, events)
			if err != nil {
				return err
			}
			for {
				select {
				case evt, ok := <-stream:
					if !ok {
						return nil
					}
					if err := app.printer.Print(evt); err != nil {
						return err
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					if err != nil {
						return core.WrapError(core.ExitRuntime, "watch events", err)
					}
				}
			}
		},
	}
	cmd.Flags().StringSliceVarP(&events, "event", "e", []string{sr.EventPlayerStateChanged, sr.EventPlayerContextChanged}, "events to observe")
	return cmd
}
