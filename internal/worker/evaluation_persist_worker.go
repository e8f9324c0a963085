package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"pdfchat/internal/model"
)

type EvaluationStore interface {
	Record(ctx context.Context, rec model.EvaluationRecord) error
}

// EvaluationPersistWorker drains the evaluation queue into MySQL.
type EvaluationPersistWorker struct {
	conn      *amqp.Connection
	store     EvaluationStore
	queueName string
	log       *logrus.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEvaluationPersistWorker(conn *amqp.Connection, store EvaluationStore, queueName string, log *logrus.Entry) *EvaluationPersistWorker {
	return &EvaluationPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log,
	}
}

func (w *EvaluationPersistWorker) Start(ctx context.Context) error {
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
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
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
					w.log.Warn("evaluation deliveries channel closed")
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.log.WithError(err).Error("persist evaluation failed")
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	w.log.WithField("queue", w.queueName).Info("evaluation persist worker started")
	return nil
}

func (w *EvaluationPersistWorker) handle(ctx context.Context, body []byte) error {
	var rec model.EvaluationRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return fmt.Errorf("decode evaluation failed: %w", err)
	}
	return w.store.Record(ctx, rec)
}

func (w *EvaluationPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
