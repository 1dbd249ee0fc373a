package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/akira-ishikawa-jpg/coin-system/internal/core/observability"
)

// MessageJob is one outbound chat.postMessage call.
type MessageJob struct {
	Channel string
	Text    string
}

type Worker struct {
	ID         int
	WorkerPool chan chan MessageJob
	JobChannel chan MessageJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan MessageJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan MessageJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MessageJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing message", "worker_id", w.ID, "channel", job.Channel)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Client delivers messages to the Slack Web API through a bounded worker
// pool, so a slow Slack never blocks the request path.
type Client struct {
	apiBaseURL     string
	botToken       string
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger

	jobQueue   chan MessageJob
	workerPool chan chan MessageJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type ClientConfig struct {
	APIBaseURL     string
	BotToken       string
	RequestTimeout time.Duration
	MaxWorkers     int
	JobQueueSize   int
}

func NewClient(config ClientConfig, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = "https://slack.com/api"
	}

	client := &Client{
		apiBaseURL:     apiBaseURL,
		botToken:       config.BotToken,
		requestTimeout: timeout,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan MessageJob, jobQueueSize),
		workerPool: make(chan chan MessageJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {

		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processMessageJob)
		}

		go c.dispatch()

		c.logger.Info("slack worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:

			select {
			case jobChannel := <-c.workerPool:

				select {
				case jobChannel <- job:

				case <-c.ctx.Done():
					c.logger.Info("dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down slack client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("slack client shutdown complete")
}

// PostMessage queues a message for delivery. A full queue drops the message
// rather than blocking the caller; notifications are best-effort.
func (c *Client) PostMessage(channel, text string) error {
	job := MessageJob{Channel: channel, Text: text}

	select {
	case c.jobQueue <- job:
		return nil
	default:
		c.logger.Warn("slack message queue full, dropping message",
			"channel", channel, "queue_capacity", cap(c.jobQueue))
		observability.SlackDeliveriesTotal.WithLabelValues("dropped").Inc()
		return fmt.Errorf("slack message queue full")
	}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (c *Client) processMessageJob(job MessageJob) {
	ctx, cancel := context.WithTimeout(c.ctx, c.requestTimeout)
	defer cancel()

	payload, err := json.Marshal(postMessageRequest{Channel: job.Channel, Text: job.Text})
	if err != nil {
		c.logger.Error("slack payload marshal failed", "error", err)
		observability.SlackDeliveriesTotal.WithLabelValues("failed").Inc()
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBaseURL+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("slack request build failed", "error", err)
		observability.SlackDeliveriesTotal.WithLabelValues("failed").Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("slack delivery failed", "error", err, "channel", job.Channel)
		observability.SlackDeliveriesTotal.WithLabelValues("failed").Inc()
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var apiResp postMessageResponse
	if err := json.Unmarshal(body, &apiResp); err != nil || !apiResp.OK {
		c.logger.Error("slack API rejected message",
			"status", resp.StatusCode, "api_error", apiResp.Error, "channel", job.Channel)
		observability.SlackDeliveriesTotal.WithLabelValues("rejected").Inc()
		return
	}

	observability.SlackDeliveriesTotal.WithLabelValues("delivered").Inc()
	c.logger.Debug("slack message delivered", "channel", job.Channel)
}
