package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-crudgen/pkg/events"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print change events published by a running server",
		Long: `Print change events published by a running server, one JSON object per
line. Topics follow "crudgen.<app>_<model>.<action>" and accept NATS
wildcards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			url, _ := flags.GetString("nats-url")
			topic, _ := flags.GetString("topic")
			limit, _ := flags.GetInt("count")
			if url == "" {
				url = os.Getenv("CRUDGEN_NATS_URL")
			}
			if url == "" {
				return fmt.Errorf("no NATS server configured, set --nats-url or CRUDGEN_NATS_URL")
			}

			sub, err := events.NewNATSSubscriber(url)
			if err != nil {
				return err
			}
			defer sub.Close()
			changes, cancel, err := sub.Subscribe(topic)
			if err != nil {
				return err
			}
			defer cancel()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			enc := json.NewEncoder(cmd.OutOrStdout())
			for seen := 0; limit <= 0 || seen < limit; seen++ {
				select {
				case <-ctx.Done():
					return nil
				case change, ok := <-changes:
					if !ok {
						return nil
					}
					if err := enc.Encode(change); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().String("nats-url", "", "NATS server URL, defaults to $CRUDGEN_NATS_URL")
	cmd.Flags().String("topic", events.AllTopics, "topic to subscribe to")
	cmd.Flags().Int("count", 0, "exit after this many events (0 waits forever)")
	return cmd
}
