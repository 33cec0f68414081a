package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vietclinic/chatbot-service/internal/observability/metrics"
	"github.com/vietclinic/chatbot-service/pkg/logging"
)

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10

	outboundSendTimeout = 5 * time.Second
	deleteTimeout       = 5 * time.Second
)

// Metric outcome labels for inbound messages.
const (
	outcomeText     = "text"
	outcomeToolCall = "tool_call"
	outcomeRestart  = "restart"
	outcomeEmpty    = "empty"
	outcomeError    = "error"
)

// Worker pulls inbound chat messages off the queue, drives the dialogue, and
// emits exactly one outbound reply per inbound message.
type Worker struct {
	driver   *Driver
	router   *Router
	inbound  Queue
	outbound Queue
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	metrics          *metrics.ChatMetrics
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// WithMetrics wires dispatch metrics. Without it the worker runs unmetered.
func WithMetrics(m *metrics.ChatMetrics) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.metrics = m
	}
}

// NewWorker constructs a queue consumer around the dialogue driver and the
// function-call router.
func NewWorker(driver *Driver, router *Router, inbound, outbound Queue, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if driver == nil {
		panic("conversation: driver cannot be nil")
	}
	if router == nil {
		panic("conversation: router cannot be nil")
	}
	if inbound == nil || outbound == nil {
		panic("conversation: queues cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		driver:   driver,
		router:   router,
		inbound:  inbound,
		outbound: outbound,
		metrics:  cfg.metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("chat worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("chat worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.inbound.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive chat messages", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes one queue message end to end. The message is deleted
// on every path: a reply that cannot be produced or delivered is logged and
// dropped rather than redelivered, so a poisoned message cannot wedge the queue.
func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var inbound InboundMessage
	if err := json.Unmarshal([]byte(msg.Body), &inbound); err != nil {
		w.logger.Error("failed to decode inbound chat message", "error", err, "msg_id", msg.ID)
		w.metrics.ObserveInbound(outcomeError)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}
	if inbound.UserID == "" {
		w.logger.Error("inbound chat message missing user id", "msg_id", msg.ID)
		w.metrics.ObserveInbound(outcomeError)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	w.logger.Info("processing chat message",
		"user_id", inbound.UserID,
		"message_id", inbound.MessageID,
	)

	reply, outcome := w.process(ctx, inbound)
	w.metrics.ObserveInbound(outcome)

	if err := w.sendReply(ctx, reply); err != nil {
		w.logger.Error("failed to publish chat reply", "error", err, "user_id", inbound.UserID, "message_id", inbound.MessageID)
	}
	w.deleteMessage(msg.ReceiptHandle)
}

// process is total: any panic out of the driver or router becomes an
// error-typed reply so the contract of one reply per message holds.
func (w *Worker) process(ctx context.Context, inbound InboundMessage) (reply OutboundMessage, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing chat message", "panic", r, "user_id", inbound.UserID)
			reply = w.errorReply(inbound, fmt.Sprintf(genericErrorFormat, r))
			outcome = outcomeError
		}
	}()

	content := strings.TrimSpace(inbound.Content)
	if content == "" {
		return w.errorReply(inbound, emptyMessageText), outcomeEmpty
	}

	if strings.ToLower(content) == restartCommand {
		w.driver.Reset(ctx, inbound.UserID)
		return w.textReply(inbound, restartedText), outcomeRestart
	}

	started := time.Now()
	turn := w.driver.SendUserTurn(ctx, inbound.UserID, content)
	w.metrics.ObserveTurnLatency("user", time.Since(started).Seconds())

	if turn.Kind != TurnToolCall {
		return w.textReply(inbound, turn.Content), outcomeText
	}

	w.metrics.ObserveToolCall(turn.Name)
	w.logger.Info("routing tool call", "function", turn.Name, "user_id", inbound.UserID)
	result := w.router.Route(ctx, turn.Name, turn.Args, inbound.Token)

	started = time.Now()
	final := w.driver.SendResultTurn(ctx, inbound.UserID, turn.Name, result)
	w.metrics.ObserveTurnLatency("result", time.Since(started).Seconds())

	reply = w.textReply(inbound, final.Content)
	reply.FunctionName = turn.Name
	reply.RawResult = result
	return reply, outcomeToolCall
}

func (w *Worker) textReply(inbound InboundMessage, content string) OutboundMessage {
	return OutboundMessage{
		UserID:    inbound.UserID,
		MessageID: replyID(inbound.MessageID),
		ReplyTo:   inbound.MessageID,
		Content:   content,
		Type:      MessageTypeText,
	}
}

func (w *Worker) errorReply(inbound InboundMessage, content string) OutboundMessage {
	reply := w.textReply(inbound, content)
	reply.Type = MessageTypeError
	return reply
}

func (w *Worker) sendReply(ctx context.Context, reply OutboundMessage) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(withoutCancel(ctx), outboundSendTimeout)
	defer cancel()
	return w.outbound.Send(sendCtx, string(body))
}

// deleteMessage removes a consumed message with its own timeout so shutdown
// cancellation cannot leave a processed message behind for redelivery.
func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.inbound.Delete(ctx, receiptHandle); err != nil {
		w.logger.Warn("failed to delete chat message", "error", err)
	}
}

// withoutCancel keeps a reply deliverable during graceful shutdown while the
// parent context is already cancelled.
func withoutCancel(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
