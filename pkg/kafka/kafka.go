package kafka

import (
	"encoding/json"

	"github.com/IBM/sarama"
)

const BookEventsTopic = "catalog.book-events"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type Publisher interface {
	Publish(topic string, v any) error
}

func NewPublisher(producer sarama.SyncProducer) Publisher {
	return &publisherImpl{
		producer: producer,
	}
}

type publisherImpl struct {
	producer sarama.SyncProducer
}

func (p *publisherImpl) Publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	if _, _, err = p.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}
