package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alfredjeanlab/convoy/internal/events"
	"github.com/alfredjeanlab/convoy/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream federation events as the sheriff publishes them",
	GroupID: "federation",
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topics")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.NATSURL == "" {
			return fmt.Errorf("watch needs CONVOY_NATS_URL; run the sheriff with events enabled")
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("nats: disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				log.Printf("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		// One subscription per subject, fanned into a single stream so
		// the printed line can carry the subject.
		type tailEvent struct {
			topic string
			data  []byte
		}
		ch := make(chan tailEvent, 64)
		for _, topic := range topics {
			msgs, cancel, err := sub.Subscribe(topic)
			if err != nil {
				return fmt.Errorf("subscribing to %s: %w", topic, err)
			}
			defer cancel()
			go func(topic string, in <-chan []byte) {
				for data := range in {
					select {
					case ch <- tailEvent{topic: topic, data: data}:
					case <-ctx.Done():
						return
					}
				}
			}(topic, msgs)
		}

		fmt.Fprintf(os.Stderr, "watching %s\n", strings.Join(topics, ", "))
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-ch:
				printEvent(ev.topic, ev.data)
			}
		}
	},
}

func printEvent(topic string, data []byte) {
	if jsonOutput {
		line, err := json.Marshal(map[string]any{
			"topic": topic,
			"event": json.RawMessage(data),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling event: %v\n", err)
			return
		}
		fmt.Println(string(line))
		return
	}
	ts := time.Now().Format("15:04:05")
	fmt.Printf("%s %s %s\n", ui.RenderMuted(ts), ui.RenderAccent(topic), data)
}

func init() {
	watchCmd.Flags().StringSlice("topics", []string{
		events.TopicBeadCreated,
		events.TopicBeadStatusChanged,
		events.TopicBeadClosed,
		events.TopicPassCompleted,
	}, "NATS subjects to tail (wildcards allowed)")
}
