package notifications

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
)

// KafkaNotifier publishes events as JSON keyed by booking id, so every event
// of one booking lands on the same partition in order.
type KafkaNotifier struct {
	Producer sarama.SyncProducer
	Topic    string
}

func NewKafkaNotifier(brokers []string, topic string, cfg *sarama.Config) (*KafkaNotifier, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaNotifier{Producer: p, Topic: topic}, nil
}

func (k *KafkaNotifier) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: k.Topic,
		Key:   sarama.StringEncoder(ev.BookingID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_kind"), Value: []byte(ev.Kind)},
		},
	}
	_, _, err = k.Producer.SendMessage(msg)
	return err
}

func (k *KafkaNotifier) Close() error {
	if k.Producer == nil {
		return nil
	}
	return k.Producer.Close()
}
