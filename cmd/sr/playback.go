package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/spotify_remote/internal/core"
)

func playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play [bridge] <uri>",
		Short: "Play a Spotify URI",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.PlayURI(ctx, selector, rest[0])
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
}

func playItemCommand() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "play-item [bridge] <item>",
		Short: "Play a content item given as JSON or URI",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			item, err := parseItem(rest[0])
			if err != nil {
				return err
			}
			var at *int
			if cmd.Flags().Changed("index") {
				at = &index
			}
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.PlayItem(ctx, selector, item, at)
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "start at this index in the item")
	return cmd
}

func queueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue [bridge] <uri>",
		Short: "Queue a track URI",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.QueueURI(ctx, selector, rest[0])
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
}

func seekCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seek [bridge] <position>",
		Short: "Seek to a position (ms, mm:ss or duration)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Seek(ctx, selector, rest[0])
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
}

func resumeCommand() *cobra.Command {
	return simpleCommand("resume [bridge]", "Resume playback", core.Service.Resume)
}

func pauseCommand() *cobra.Command {
	return simpleCommand("pause [bridge]", "Pause playback", core.Service.Pause)
}

func nextCommand() *cobra.Command {
	return simpleCommand("next [bridge]", "Skip to the next track", core.Service.Next)
}

func prevCommand() *cobra.Command {
	return simpleCommand("prev [bridge]", "Skip to the previous track", core.Service.Previous)
}

func shuffleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle [bridge] <on|off>",
		Short: "Set shuffle",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Shuffle(ctx, selector, rest[0])
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
}

func repeatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repeat [bridge] <off|track|context>",
		Short: "Set repeat mode",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Repeat(ctx, selector, rest[0])
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
}

func stateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state [bridge]",
		Short: "Show the player state",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.PlayerState(ctx, selector)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func crossfadeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crossfade [bridge]",
		Short: "Show the crossfade setting",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Crossfade(ctx, selector)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func parseCount(value string, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, &core.CLIError{Code: core.ExitUsage, Msg: "invalid " + name + ": " + value}
	}
	return n, nil
}
