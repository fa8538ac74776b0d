/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wildlens/apiserver/config"
	"github.com/wildlens/apiserver/internal/logging"
	"github.com/wildlens/apiserver/internal/mq"
	"github.com/wildlens/apiserver/types"
)

// eventsCmd groups commands that work with the scan event bus.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect scan events",
}

var tailGroup string

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log scan events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Env, cfg.LogLevel)
		if cmd.Flags().Changed("group") {
			cfg.MQ.RabbitMQ.ConsumerGroup = tailGroup
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bus, err := mq.New(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if bus == nil {
			return fmt.Errorf("MQ_BACKEND is not set")
		}
		defer bus.Close()

		log.Info().
			Str("channel", cfg.MQ.ScanChannel).
			Str("group", cfg.MQ.RabbitMQ.ConsumerGroup).
			Msg("tailing scan events")
		err = bus.Subscribe(ctx, cfg.MQ.ScanChannel, func(_ context.Context, msg mq.Message) error {
			var event types.ScanEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Undecodable messages are dropped rather than redelivered forever.
				log.Warn().Err(err).Str("message_id", msg.ID).Msg("skipping malformed event")
				return nil
			}
			log.Info().
				Str("message_id", msg.ID).
				Int64("scan_id", event.ScanID).
				Int("user_id", event.UserID).
				Str("species", event.Species).
				Str("timestamp", event.Timestamp).
				Msg("scan created")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
	eventsTailCmd.Flags().StringVar(&tailGroup, "group", "", "RabbitMQ consumer group; defaults to RABBITMQ_CONSUMER_GROUP")
}
