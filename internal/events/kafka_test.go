package events

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestKafka_PublishesJSONKeyedByProject(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, nil)
	prod.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "mapnotes.events" {
			return fmt.Errorf("topic=%q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil || string(key) != "trip" {
			return fmt.Errorf("key=%q err=%v", key, err)
		}
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("value is not an event: %w", err)
		}
		if ev.Type != MarkerAdded || ev.MarkerID != "m1" {
			return fmt.Errorf("event=%+v", ev)
		}
		return nil
	})

	k := NewKafkaWithProducer(prod, "mapnotes.events", 4, nil)
	k.Publish(Event{Type: MarkerAdded, Project: "trip", MarkerID: "m1", TS: time.Unix(0, 0).UTC()})

	// Close drains the queue before the mock verifies its expectations.
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafka_PublishAfterCloseIsIgnored(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, nil)
	k := NewKafkaWithProducer(prod, "t", 1, nil)
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	k.Publish(Event{Type: MarkerRemoved}) // must not panic
	if err := k.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(Event{Type: FocusBounds})
}
