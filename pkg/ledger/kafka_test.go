package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/booking-mailer/pkg/config"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed int
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func newTestKafka(t *testing.T, w *fakeWriter) *Kafka {
	t.Helper()
	k, err := NewKafka(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	require.NoError(t, err)
	require.NoError(t, k.writer.Close())
	k.writer = w
	return k
}

func TestNewKafka(t *testing.T) {
	_, err := NewKafka(KafkaConfig{})
	assert.ErrorContains(t, err, "broker")

	k, err := NewKafka(KafkaConfig{Brokers: []string{"b1:9092", "b2:9092"}})
	require.NoError(t, err)
	defer k.Close()
	assert.Equal(t, config.DefaultKafkaTopic, k.topic)
	w := k.writer.(*kafka.Writer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.False(t, w.Async)
}

func TestKafkaRecord(t *testing.T) {
	w := &fakeWriter{}
	k := newTestKafka(t, w)

	o := NewOutcome("a@x.com", "Booking", "text", false, 3, "refused", testNow)
	require.NoError(t, k.Record(context.Background(), o))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("a@x.com"), msg.Key)

	var decoded Outcome
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, o.ID, decoded.ID)
	assert.Equal(t, StatusFailure, decoded.Status)
	assert.Equal(t, "refused", decoded.ErrorMessage)
	assert.Equal(t, 3, decoded.Attempts)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, o.ID.String(), headers["outcome-id"])
	assert.Equal(t, "failure", headers["status"])
}

func TestKafkaRecordErrors(t *testing.T) {
	t.Run("invalid outcome", func(t *testing.T) {
		w := &fakeWriter{}
		k := newTestKafka(t, w)
		assert.ErrorIs(t, k.Record(context.Background(), Outcome{}), ErrInvalidOutcome)
		assert.Empty(t, w.msgs)
	})

	t.Run("write failure is classified and wrapped", func(t *testing.T) {
		cause := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		k := newTestKafka(t, &fakeWriter{err: cause})
		err := k.Record(context.Background(), NewOutcome("a@x.com", "s", "c", true, 1, "", testNow))
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "(network)")
	})

	t.Run("closed ledger", func(t *testing.T) {
		w := &fakeWriter{}
		k := newTestKafka(t, w)
		require.NoError(t, k.Close())
		require.NoError(t, k.Close(), "double close is safe")
		assert.Equal(t, 1, w.closed)
		assert.ErrorIs(t, k.Record(context.Background(), NewOutcome("a@x.com", "s", "c", true, 1, "", testNow)), ErrClosed)
	})
}

func TestKafkaInitIsIdempotent(t *testing.T) {
	k := newTestKafka(t, &fakeWriter{})
	calls := 0
	k.createTopic = func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("controller unavailable")
		}
		return nil
	}

	require.Error(t, k.Init(context.Background()))
	require.NoError(t, k.Init(context.Background()))
	require.NoError(t, k.Init(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestClassifyKafkaError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "cancelled"},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, "network"},
		{errors.New("SASL handshake failed"), "auth"},
		{errors.New("dial tcp: connection refused"), "network"},
		{errors.New("not leader for partition"), "broker"},
		{errors.New("unknown topic or partition"), "topic"},
		{errors.New("weird"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyKafkaError(tt.err), tt.err.Error())
	}
}
