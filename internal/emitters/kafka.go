// Package emitters publishes balance snapshots to downstream consumers.
package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// SnapshotEmitter receives every snapshot the poller delivers.
type SnapshotEmitter interface {
	Emit(ctx context.Context, snap wallet.BalanceSnapshot) error
	Close() error
}

// SnapshotEvent is the JSON body of one message. Amounts are decimal strings
// in base units.
type SnapshotEvent struct {
	Account    string    `json:"account"`
	Native     string    `json:"native"`
	Token      string    `json:"token,omitempty"`
	TokenAddr  string    `json:"tokenAddress,omitempty"`
	ObservedAt time.Time `json:"observedAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter writes snapshots keyed by account so one account's updates
// stay ordered within a partition.
type KafkaEmitter struct {
	writer messageWriter
	token  string
	log    zerolog.Logger
	mu     sync.Mutex
}

func NewKafkaEmitter(brokerAddress, topic, token string, log zerolog.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerAddress),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		token: token,
		log:   log,
	}
}

func newSnapshotMessage(snap wallet.BalanceSnapshot, token string) (kafka.Message, error) {
	ev := SnapshotEvent{
		Account:    snap.Account.String(),
		Native:     snap.Native().String(),
		ObservedAt: snap.ObservedAt.UTC(),
	}
	if token != "" {
		ev.Token = snap.Token().String()
		ev.TokenAddr = token
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return kafka.Message{Key: []byte(ev.Account), Value: value, Time: ev.ObservedAt}, nil
}

func (k *KafkaEmitter) Emit(ctx context.Context, snap wallet.BalanceSnapshot) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.writer == nil {
		return fmt.Errorf("kafka emitter closed")
	}

	msg, err := newSnapshotMessage(snap, k.token)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	k.log.Debug().Str("account", snap.Account.String()).Msg("snapshot emitted to Kafka")
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
