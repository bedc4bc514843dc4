/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package grafanagen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingtower/grafana-gen/pkg/logger"
)

type fetchResult struct {
	msgs []jetstream.Msg
	err  error
}

type fakePullConsumer struct {
	results []fetchResult
	calls   int
}

func (f *fakePullConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.calls++

	if len(f.results) == 0 {
		return nil, nats.ErrConnectionClosed
	}

	res := f.results[0]
	f.results = f.results[1:]

	if res.err != nil {
		return nil, res.err
	}

	ch := make(chan jetstream.Msg, len(res.msgs))
	for _, msg := range res.msgs {
		ch <- msg
	}

	close(ch)

	return &fakeMessageBatch{ch: ch}, nil
}

type fakeMessageBatch struct {
	ch  chan jetstream.Msg
	err error
}

func (f *fakeMessageBatch) Messages() <-chan jetstream.Msg {
	return f.ch
}

func (f *fakeMessageBatch) Error() error {
	return f.err
}

// fakeJSMsg implements the jetstream.Msg methods the source uses.
type fakeJSMsg struct {
	jetstream.Msg

	data   []byte
	md     *jetstream.MsgMetadata
	acked  bool
	nakked bool
}

func (m *fakeJSMsg) Data() []byte    { return m.data }
func (m *fakeJSMsg) Subject() string { return "worker.created" }

func (m *fakeJSMsg) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeJSMsg) Nak() error {
	m.nakked = true
	return nil
}

func (m *fakeJSMsg) Metadata() (*jetstream.MsgMetadata, error) {
	if m.md == nil {
		return nil, jetstream.ErrNotJSMessage
	}

	return m.md, nil
}

func TestJetStreamSourceNextSkipsEmptyFetches(t *testing.T) {
	msg := &fakeJSMsg{
		data: []byte(validEvent),
		md: &jetstream.MsgMetadata{
			NumDelivered: 3,
			Sequence:     jetstream.SequencePair{Stream: 42},
		},
	}

	consumer := &fakePullConsumer{results: []fetchResult{
		{err: nats.ErrTimeout},
		{},
		{msgs: []jetstream.Msg{msg}},
	}}

	src := &jetStreamSource{consumer: consumer, expiry: time.Millisecond, retryDelay: time.Millisecond, logger: logger.NewTestLogger()}

	got, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, consumer.calls)

	assert.Equal(t, []byte(validEvent), got.Data())
	assert.Equal(t, uint64(3), got.NumDelivered())
	assert.Equal(t, "42", got.Ref())

	require.NoError(t, got.Nak())
	assert.True(t, msg.nakked)
	require.NoError(t, got.Ack())
	assert.True(t, msg.acked)
}

type failingPullConsumer struct {
	calls int
}

func (f *failingPullConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.calls++

	return nil, errTransientFetch
}

var errTransientFetch = errors.New("nats: transient fetch failure")

func TestJetStreamSourceNextBacksOffOnFetchErrors(t *testing.T) {
	consumer := &failingPullConsumer{}
	src := &jetStreamSource{consumer: consumer, retryDelay: 20 * time.Millisecond, logger: logger.NewTestLogger()}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, err := src.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	assert.GreaterOrEqual(t, consumer.calls, 1)
	assert.LessOrEqual(t, consumer.calls, 10)
}

func TestJetStreamMessageWithoutMetadata(t *testing.T) {
	msg := jetStreamMessage{msg: &fakeJSMsg{}}

	assert.Zero(t, msg.NumDelivered())
	assert.Equal(t, "worker.created", msg.Ref())
}

func TestJetStreamSourceNextFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "connection closed", err: nats.ErrConnectionClosed},
		{name: "no responders", err: nats.ErrNoResponders},
		{name: "consumer deleted", err: jetstream.ErrConsumerDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &jetStreamSource{
				consumer: &fakePullConsumer{results: []fetchResult{{err: tt.err}}},
				logger:   logger.NewTestLogger(),
			}

			_, err := src.Next(context.Background())
			require.ErrorIs(t, err, ErrSourceClosed)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestJetStreamSourceNextBatchError(t *testing.T) {
	ch := make(chan jetstream.Msg)
	close(ch)

	consumer := &batchErrConsumer{batch: &fakeMessageBatch{ch: ch, err: nats.ErrConnectionClosed}}
	src := &jetStreamSource{consumer: consumer, logger: logger.NewTestLogger()}

	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, ErrSourceClosed)
}

type batchErrConsumer struct {
	batch jetstream.MessageBatch
}

func (b *batchErrConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	return b.batch, nil
}

func TestJetStreamSourceNextHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &jetStreamSource{consumer: &fakePullConsumer{}, logger: logger.NewTestLogger()}

	_, err := src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, src.Close())
}

func TestConsumerConfig(t *testing.T) {
	cfg := DefaultConfig().NATS

	unlimited := consumerConfig(&cfg, 0, 0)
	assert.Equal(t, "grafana-gen", unlimited.Durable)
	assert.Equal(t, jetstream.AckExplicitPolicy, unlimited.AckPolicy)
	assert.Equal(t, -1, unlimited.MaxDeliver)
	assert.Equal(t, 1, unlimited.MaxAckPending)
	assert.Equal(t, defaultAckWait, unlimited.AckWait)
	assert.Equal(t, "worker.created", unlimited.FilterSubject)

	bounded := consumerConfig(&cfg, 5, time.Minute)
	assert.Equal(t, 5, bounded.MaxDeliver)
	assert.Equal(t, time.Minute, bounded.AckWait)
}
