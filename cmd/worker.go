package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/core/events"
	"github.com/akira-ishikawa-jpg/coin-system/internal/slack"
	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background delivery, like Slack notifications.`,
}

// Slack worker command
var slackWorkerCmd = &cobra.Command{
	Use:   "slack",
	Short: "Start the slack delivery worker pool",
	Long:  `Start the slack worker pool and send a test message to verify delivery`,
	Run: func(cmd *cobra.Command, args []string) {
		startSlackWorker()
	},
}

// Event Bus worker command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	testMessage  string
)

func startSlackWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.L()

	clientConfig := slack.ClientConfig{
		APIBaseURL:     config.Slack.APIBaseURL,
		BotToken:       config.Slack.BotToken,
		RequestTimeout: config.Slack.RequestTimeout,
		MaxWorkers:     getIntFlag(maxWorkers, config.Slack.MaxWorkers),
		JobQueueSize:   getIntFlag(jobQueueSize, config.Slack.JobQueueSize),
	}

	lg.Info("starting slack worker",
		"max_workers", clientConfig.MaxWorkers,
		"job_queue_size", clientConfig.JobQueueSize,
		"api_url", clientConfig.APIBaseURL)

	client := slack.NewClient(clientConfig, lg)

	if testMessage != "" && config.Slack.ChannelID != "" {
		if err := client.PostMessage(config.Slack.ChannelID, testMessage); err != nil {
			lg.Error("failed to queue test message", "error", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("slack worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down slack worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		client.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("slack worker pool shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func startEventWorker() {
	if _, err := loadConfig("."); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.L()

	eventBus := events.NewEventBus(lg)

	eventBus.Subscribe(events.EventTypeTransferCreated, func(ctx context.Context, event events.Event) error {
		lg.Info("received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	lg.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down event bus", "signal", sig)
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	slackWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	slackWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	slackWorkerCmd.Flags().StringVar(&testMessage, "test-message", "", "Queue a test message after startup")

	workerCmd.AddCommand(slackWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
