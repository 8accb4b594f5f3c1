package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/seismic-map/internal/config"
	"github.com/couchcryptid/seismic-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	change := domain.Change{
		Layer:     domain.LayerEarthquakes,
		RequestID: "req-1",
		Entered:   []string{"a", "b"},
		Exited:    []string{"c"},
		Rendered:  3,
		At:        now,
	}

	msg, err := serializeToMessage(change)
	require.NoError(t, err)

	assert.Equal(t, []byte("earthquakes"), msg.Key)
	assert.JSONEq(t, `{
		"layer": "earthquakes",
		"request_id": "req-1",
		"entered": ["a", "b"],
		"exited": ["c"],
		"rendered": 3,
		"at": "2024-04-26T15:10:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "layer", msg.Headers[0].Key)
	assert.Equal(t, []byte("earthquakes"), msg.Headers[0].Value)
	assert.Equal(t, "changed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, "request_id", msg.Headers[2].Key)
}

func TestSerializeToMessage_NoRequestID(t *testing.T) {
	msg, err := serializeToMessage(domain.Change{Layer: domain.LayerEarthquakes})
	require.NoError(t, err)
	assert.Len(t, msg.Headers, 2)
}

func TestDecodeChange(t *testing.T) {
	in := domain.Change{
		Layer:   domain.LayerEarthquakes,
		Entered: []string{"a"},
		Exited:  []string{},
		At:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	msg, err := serializeToMessage(in)
	require.NoError(t, err)

	out, err := DecodeChange(msg)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeChange(kafkago.Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestWriter_PublishNothing(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "t"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()

	assert.NoError(t, w.Publish(context.Background()))
}
