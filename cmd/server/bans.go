package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DaveMcBlame1/chatroom/internal/app"
	"github.com/DaveMcBlame1/chatroom/internal/store"
)

func newBansCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bans",
		Short: "Inspect and edit the ban list in the configured store",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print banned usernames",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return root.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
					names, err := st.ListBans(ctx)
					if err != nil {
						return fmt.Errorf("list bans: %w", err)
					}
					for _, name := range names {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <user>",
			Short: "Ban a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return root.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
					if err := st.AddBan(ctx, args[0]); err != nil {
						return fmt.Errorf("add ban: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "banned %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <user>",
			Short: "Lift a ban",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return root.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
					if err := st.RemoveBan(ctx, args[0]); err != nil {
						return fmt.Errorf("remove ban: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "unbanned %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func (o *rootOptions) withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	st, err := app.OpenStore(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to close store")
		}
	}()
	return fn(ctx, st)
}
