package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pubconcept/internal/config"
	pkgerrors "github.com/turtacn/pubconcept/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	written   []kafka.Message
	closes    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closes++
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newProducer(w, "articles", nil)

	err := p.Publish(context.Background(), Message{Key: []byte("k"), Value: []byte("v"), Headers: map[string]string{"h": "1"}})
	require.NoError(t, err)

	require.Len(t, w.written, 1)
	assert.Equal(t, []byte("k"), w.written[0].Key)
	assert.Equal(t, []kafka.Header{{Key: "h", Value: []byte("1")}}, w.written[0].Headers)
	assert.False(t, w.written[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Sent())
}

func TestPublish_Validation(t *testing.T) {
	p := newProducer(&mockKafkaWriter{}, "articles", nil)

	err := p.Publish(context.Background(), Message{Key: []byte("k")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	err = p.Publish(context.Background(), Message{Value: []byte(strings.Repeat("x", defaultMaxMessageBytes+1))})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestPublish_WriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return errors.New("leader not available")
	}}
	p := newProducer(w, "articles", nil)

	err := p.Publish(context.Background(), Message{Value: []byte("v")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSinkWriteFailed))
	assert.Contains(t, err.Error(), "articles")
	assert.Equal(t, int64(1), p.Failed())
}

func TestClose_Idempotent(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newProducer(w, "articles", nil)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closes)

	err := p.Publish(context.Background(), Message{Value: []byte("v")})
	assert.Equal(t, ErrProducerClosed, err)
}

func TestValidateProducerConfig(t *testing.T) {
	ok := config.KafkaConfig{Brokers: []string{"b:9092"}, Topic: "t"}
	assert.NoError(t, ValidateProducerConfig(ok))

	noBrokers := ok
	noBrokers.Brokers = nil
	assert.Error(t, ValidateProducerConfig(noBrokers))

	noTopic := ok
	noTopic.Topic = ""
	assert.Error(t, ValidateProducerConfig(noTopic))

	negative := ok
	negative.MaxAttempts = -1
	assert.Error(t, ValidateProducerConfig(negative))
}

func TestNewProducer_BuildsWriter(t *testing.T) {
	p, err := NewProducer(config.KafkaConfig{
		Brokers:      []string{"b1:9092", "b2:9092"},
		Topic:        "pubconcept.articles",
		BatchSize:    10,
		BatchTimeout: time.Second,
		MaxAttempts:  3,
		RequiredAcks: -1,
		Compression:  "zstd",
	}, nil)
	require.NoError(t, err)

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "pubconcept.articles", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, kafka.Zstd, w.Compression)
	assert.Equal(t, 3, w.MaxAttempts)
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Gzip, compressionCodec("gzip"))
	assert.Equal(t, kafka.Snappy, compressionCodec("snappy"))
	assert.Equal(t, kafka.Lz4, compressionCodec("lz4"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
}

//Personal.AI order the ending
