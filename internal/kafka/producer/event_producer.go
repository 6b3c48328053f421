package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

const (
	TopicSubscriptionCreated  = "subscription.created"
	TopicSubscriptionCanceled = "subscription.canceled"
	TopicPaymentRecorded      = "payment.recorded"
	TopicRewardApplied        = "reward.applied"
	TopicRewardApplyFailed    = "reward.apply_failed"
)

// MembershipEvent представляет событие членства для Kafka.
// Ключом сообщения служит id абонемента: все события одного абонемента
// попадают в одну партицию и сохраняют порядок.
type MembershipEvent struct {
	SubscriptionID string                    `json:"subscription_id"`
	ClientID       string                    `json:"client_id,omitempty"`
	Status         domain.SubscriptionStatus `json:"status,omitempty"`
	Amount         string                    `json:"amount,omitempty"`
	PaymentMethod  string                    `json:"payment_method,omitempty"`
	RewardID       string                    `json:"reward_id,omitempty"`
	Reason         string                    `json:"reason,omitempty"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// EventProducer интерфейс для отправки событий членства
type EventProducer interface {
	PublishSubscriptionCreated(ctx context.Context, sub domain.Subscription) error
	PublishSubscriptionCanceled(ctx context.Context, sub domain.Subscription) error
	PublishPaymentRecorded(ctx context.Context, payment domain.Payment, status domain.SubscriptionStatus) error
	PublishRewardApplied(ctx context.Context, rewardID string, sub domain.Subscription) error
	PublishRewardApplyFailed(ctx context.Context, rewardID string, sub domain.Subscription, cause error) error
	Close() error
}

type kafkaEventProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaEventProducer создает новый продюсер событий членства
func NewKafkaEventProducer(producer sarama.SyncProducer, log *logger.Logger) EventProducer {
	return &kafkaEventProducer{
		producer: producer,
		log:      log,
	}
}

// PublishSubscriptionCreated публикует событие о создании абонемента
func (p *kafkaEventProducer) PublishSubscriptionCreated(ctx context.Context, sub domain.Subscription) error {
	return p.publishEvent(TopicSubscriptionCreated, MembershipEvent{
		SubscriptionID: sub.ID.String(),
		ClientID:       sub.ClientID.String(),
		Status:         sub.Status,
		Timestamp:      time.Now(),
	})
}

// PublishSubscriptionCanceled публикует событие об отмене абонемента
func (p *kafkaEventProducer) PublishSubscriptionCanceled(ctx context.Context, sub domain.Subscription) error {
	return p.publishEvent(TopicSubscriptionCanceled, MembershipEvent{
		SubscriptionID: sub.ID.String(),
		ClientID:       sub.ClientID.String(),
		Status:         sub.Status,
		Reason:         sub.CancellationReason,
		Timestamp:      time.Now(),
	})
}

// PublishPaymentRecorded публикует событие о проведенном платеже
func (p *kafkaEventProducer) PublishPaymentRecorded(ctx context.Context, payment domain.Payment, status domain.SubscriptionStatus) error {
	return p.publishEvent(TopicPaymentRecorded, MembershipEvent{
		SubscriptionID: payment.SubscriptionID.String(),
		Status:         status,
		Amount:         payment.Amount.String(),
		PaymentMethod:  string(payment.PaymentMethod),
		Timestamp:      time.Now(),
	})
}

// PublishRewardApplied публикует событие о примененной награде
func (p *kafkaEventProducer) PublishRewardApplied(ctx context.Context, rewardID string, sub domain.Subscription) error {
	return p.publishEvent(TopicRewardApplied, MembershipEvent{
		SubscriptionID: sub.ID.String(),
		ClientID:       sub.ClientID.String(),
		RewardID:       rewardID,
		Timestamp:      time.Now(),
	})
}

// PublishRewardApplyFailed публикует событие о награде, не примененной
// после успешного продления
func (p *kafkaEventProducer) PublishRewardApplyFailed(ctx context.Context, rewardID string, sub domain.Subscription, cause error) error {
	return p.publishEvent(TopicRewardApplyFailed, MembershipEvent{
		SubscriptionID: sub.ID.String(),
		ClientID:       sub.ClientID.String(),
		RewardID:       rewardID,
		Reason:         cause.Error(),
		Timestamp:      time.Now(),
	})
}

// publishEvent публикует событие членства в Kafka
func (p *kafkaEventProducer) publishEvent(topic string, event MembershipEvent) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal membership event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.SubscriptionID),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish membership event: %w", err)
	}

	p.log.Debug("Published membership event to topic %s: partition=%d offset=%d", topic, partition, offset)
	return nil
}

// Close закрывает продюсер
func (p *kafkaEventProducer) Close() error {
	return p.producer.Close()
}
