package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/campuscanteen/canteen-service/pkg/models"
	"github.com/sirupsen/logrus"
)

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer([]string{brokers}, config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *KafkaProducer) OrderPlaced(order *models.Order) error {
	event := OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		UserEmail: order.UserEmail,
		Total:     order.Total,
		Hostel:    order.Hostel,
		CreatedAt: order.CreatedAt,
		EventTime: time.Now(),
	}
	return p.publish(OrderPlacedTopic, order.ID, event)
}

func (p *KafkaProducer) OrderStatusChanged(order *models.Order) error {
	event := OrderStatusEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		CompletionTime: order.CompletionTime,
		EventTime:      time.Now(),
	}
	return p.publish(OrderStatusTopic, order.ID, event)
}

func (p *KafkaProducer) publish(topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"order_id":  key,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
