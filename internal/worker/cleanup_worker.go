package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"docvault/internal/index"
	"docvault/internal/model"
)

// CleanupWorker drains the reconciliation queue and deletes orphaned
// chunks left behind by aborted ingests. Deletion is idempotent, so
// redelivered tasks are harmless.
type CleanupWorker struct {
	conn       *amqp.Connection
	vectors    index.VectorIndex
	queueName  string
	retryDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCleanupWorker(conn *amqp.Connection, vectors index.VectorIndex, queueName string) *CleanupWorker {
	return &CleanupWorker{
		conn:       conn,
		vectors:    vectors,
		queueName:  queueName,
		retryDelay: 5 * time.Second,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handleDelivery(workerCtx, d)
			}
		}
	}()

	return nil
}

// handleDelivery processes one cleanup task. A first failure is requeued
// after a delay; a failure on an already-redelivered task is dropped, so a
// poisoned task cannot spin the worker. Deletion is idempotent, so dropping
// only defers the cleanup to the next ingest or delete of that document.
func (w *CleanupWorker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var task model.CleanupTask
	if err := json.Unmarshal(d.Body, &task); err != nil {
		log.Printf("worker decode cleanup task failed: %v", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.vectors.DeleteDocument(ctx, task.AccountID, task.DocumentID); err != nil {
		if d.Redelivered {
			log.Printf("worker dropping cleanup task for document %s after retry: %v", task.DocumentID, err)
			_ = d.Nack(false, false)
			return
		}
		log.Printf("worker cleanup document %s failed, requeueing: %v", task.DocumentID, err)
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func (w *CleanupWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
