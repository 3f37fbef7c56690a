package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/mapnotes/internal/core/observability"
)

// Kafka queues events and hands them to an async producer from a single
// goroutine. A full queue drops the event.
type Kafka struct {
	topic   string
	prod    sarama.AsyncProducer
	log     *slog.Logger
	events  chan Event
	stopped chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ Publisher = (*Kafka)(nil)

func NewKafka(brokers []string, topic string, queueSize int, log *slog.Logger) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("events: create async producer: %w", err)
	}
	return NewKafkaWithProducer(prod, topic, queueSize, log), nil
}

// NewKafkaWithProducer takes ownership of prod.
func NewKafkaWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Kafka {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	k := &Kafka{
		topic:   topic,
		prod:    prod,
		log:     log,
		events:  make(chan Event, queueSize),
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(k.stopped)
		for ev := range k.events {
			b, err := json.Marshal(ev)
			if err != nil {
				k.log.Error("events: marshal", "type", ev.Type, "err", err)
				observability.ObserveEvent(string(ev.Type), "error")
				continue
			}
			k.prod.Input() <- &sarama.ProducerMessage{
				Topic: k.topic,
				Key:   sarama.StringEncoder(ev.Project),
				Value: sarama.ByteEncoder(b),
			}
			observability.ObserveEvent(string(ev.Type), "sent")
		}
	}()

	go func() {
		for err := range k.prod.Errors() {
			if err != nil {
				k.log.Warn("events: producer error", "err", err)
				observability.ObserveEvent("producer", "error")
			}
		}
	}()

	return k
}

func (k *Kafka) Publish(ev Event) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return
	}
	select {
	case k.events <- ev:
	default:
		// queue full, never block the caller
		observability.ObserveEvent(string(ev.Type), "dropped")
	}
}

// Close flushes queued events and closes the producer.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	close(k.events)
	k.mu.Unlock()

	<-k.stopped
	if err := k.prod.Close(); err != nil {
		return fmt.Errorf("events: close producer: %w", err)
	}
	return nil
}
