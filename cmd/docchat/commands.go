package main

import (
	"context"
	"fmt"
	"time"

	"docsearch-console/pkg/events"
	pktNats "docsearch-console/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"ls"},
	Short:   "List saved conversations, most recent first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := openConsole(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		items, err := container.Chat.Conversations(cmd.Context())
		if err != nil {
			return err
		}
		printConversations(cmd.OutOrStdout(), items)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := openConsole(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		if err := container.Chat.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the active LLM providers of a backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secondary, _ := cmd.Flags().GetBool("secondary")

		container, err := openConsole(cmd.Context())
		if err != nil {
			return err
		}
		defer container.Close()

		container.Chat.Settings().SetUseMainBackend(!secondary)
		providers, err := container.Chat.Providers(cmd.Context())
		if err != nil {
			return err
		}
		printProviders(cmd.OutOrStdout(), providers, "")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail chat events published by consoles to NATS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Events.NatsURL == "" {
			return fmt.Errorf("NATS_URL is not set")
		}
		eventType, _ := cmd.Flags().GetString("type")
		durable, _ := cmd.Flags().GetString("durable")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		sub, err := pktNats.NewSubscriber(cfg.Events.NatsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		return sub.Subscribe(ctx, eventType, durable, func(ctx context.Context, event events.Event) error {
			faint.Fprintf(out, "%s ", event.Timestamp().Local().Format(time.TimeOnly))
			color.New(color.FgCyan).Fprintf(out, "%-28s", event.EventType())
			fmt.Fprintf(out, " %v\n", event.Payload())
			return nil
		})
	},
}
