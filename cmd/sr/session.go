package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/spotify_remote/internal/core"
)

func lsCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List online bridges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.ListBridges(ctx, all)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include every node kind")
	return cmd
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [bridge]",
		Short: "Show connection and session state",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Status(ctx, selector)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func authorizeCommand() *cobra.Command {
	var (
		opts core.AuthorizeOptions
		wait time.Duration
	)
	cmd := &cobra.Command{
		Use:   "authorize [bridge]",
		Short: "Start a Spotify login on the bridge and wait for it",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), wait)
			defer cancel()
			result, err := app.service.Authorize(ctx, selector, opts)
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "Spotify client id")
	cmd.Flags().StringVar(&opts.RedirectURL, "redirect", "", "registered redirect url")
	cmd.Flags().StringSliceVarP(&opts.Scopes, "scope", "s", []string{"app-remote-control"}, "requested scopes")
	cmd.Flags().BoolVar(&opts.ShowDialog, "show-dialog", false, "force the consent dialog")
	cmd.Flags().StringVar(&opts.AuthType, "auth-type", "TOKEN", "TOKEN or CODE")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Minute, "how long to wait for the login")
	return cmd
}

func sessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session [bridge]",
		Short: "Show the stored session",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Session(ctx, selector)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func endSessionCommand() *cobra.Command {
	return simpleCommand("end-session [bridge]", "Forget the stored session", core.Service.EndSession)
}

func connectCommand() *cobra.Command {
	var (
		token string
		wait  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "connect [bridge]",
		Short: "Connect the bridge with its stored session",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), wait)
			defer cancel()
			result, err := app.service.Connect(ctx, selector, token)
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "override the session access token")
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the connection")
	return cmd
}

func connectWithoutAuthCommand() *cobra.Command {
	var (
		token    string
		clientID string
		redirect string
		wait     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "connect-without-auth [bridge]",
		Short: "Connect the bridge with an existing access token",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), wait)
			defer cancel()
			result, err := app.service.ConnectWithoutAuth(ctx, selector, token, clientID, redirect)
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Spotify client id")
	cmd.Flags().StringVar(&redirect, "redirect", "", "registered redirect url")
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the connection")
	return cmd
}

func disconnectCommand() *cobra.Command {
	return simpleCommand("disconnect [bridge]", "Disconnect the bridge from Spotify", core.Service.Disconnect)
}

// simpleCommand builds a command that takes only an optional bridge and
// prints an ack.
func simpleCommand(use string, short string, run func(core.Service, context.Context, string) (core.AckResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := run(app.service, ctx, selector)
			if err != nil {
				return err
			}
			return app.print(result)
		},
	}
}
