package main

import (
	"context"

	"github.com/spf13/cobra"
)

func recommendedCommand() *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "recommended [bridge]",
		Short: "List recommended content",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Recommended(ctx, selector, contentType)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
	cmd.Flags().StringVar(&contentType, "type", "default", "content type")
	return cmd
}

func childrenCommand() *cobra.Command {
	var perPage, offset string
	cmd := &cobra.Command{
		Use:   "children [bridge] <item>",
		Short: "List the children of a content item given as JSON or URI",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			item, err := parseItem(rest[0])
			if err != nil {
				return err
			}
			limit, err := parseCount(perPage, "per-page")
			if err != nil {
				return err
			}
			skip, err := parseCount(offset, "offset")
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.Children(ctx, selector, item, limit, skip)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
	cmd.Flags().StringVar(&perPage, "per-page", "20", "page size")
	cmd.Flags().StringVar(&offset, "offset", "0", "page offset")
	return cmd
}

func rootItemsCommand() *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "root [bridge]",
		Short: "List root content items",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, _ := splitSelector(args, 0)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.RootItems(ctx, selector, contentType)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
	cmd.Flags().StringVar(&contentType, "type", "default", "content type")
	return cmd
}

func itemCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "item [bridge] <uri>",
		Short: "Look up the content item for a URI",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			selector, rest := splitSelector(args, 1)
			ctx, cancel := withTimeout(context.Background(), app.timeout)
			defer cancel()
			result, err := app.service.ItemForURI(ctx, selector, rest[0])
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}
