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
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pingtower/grafana-gen/pkg/logger"
	"github.com/pingtower/grafana-gen/pkg/metrics"
)

var errProcessing = errors.New("processing failed")

type processorFunc func(ctx context.Context, body []byte) error

func (f processorFunc) Process(ctx context.Context, body []byte) error { return f(ctx, body) }

// fakeSource hands out msgs in order, then fails with err, or blocks until
// the context ends when err is nil.
type fakeSource struct {
	mu     sync.Mutex
	msgs   []Message
	err    error
	closed bool
}

func (f *fakeSource) Next(ctx context.Context) (Message, error) {
	f.mu.Lock()

	if len(f.msgs) > 0 {
		msg := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()

		return msg, nil
	}

	err := f.err
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	return nil, ctx.Err()
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func newMessage(ctrl *gomock.Controller, body string, attempt uint64) *MockMessage {
	msg := NewMockMessage(ctrl)
	msg.EXPECT().Data().Return([]byte(body)).AnyTimes()
	msg.EXPECT().NumDelivered().Return(attempt).AnyTimes()
	msg.EXPECT().Ref().Return("1").AnyTimes()

	return msg
}

func runConsumer(t *testing.T, msgs []Message, maxDeliveries int, m *metrics.Metrics, proc MessageProcessor) {
	t.Helper()

	source := &fakeSource{msgs: msgs, err: ErrSourceClosed}
	c := NewConsumer(source, maxDeliveries, m, logger.NewTestLogger())

	require.ErrorIs(t, c.ProcessMessages(context.Background(), proc), ErrSourceClosed)
}

func TestConsumerAcksSuccessfulMessages(t *testing.T) {
	ctrl := gomock.NewController(t)

	msg := newMessage(ctrl, validEvent, 1)
	msg.EXPECT().Ack().Return(nil)

	m := metrics.NewMetrics(prometheus.NewRegistry())

	runConsumer(t, []Message{msg}, 0, m, processorFunc(func(context.Context, []byte) error { return nil }))

	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(metrics.OutcomeAcked)), 0)
}

func TestConsumerCountsFailedAcknowledgement(t *testing.T) {
	ctrl := gomock.NewController(t)

	msg := newMessage(ctrl, validEvent, 1)
	msg.EXPECT().Ack().Return(errors.New("channel closed"))

	m := metrics.NewMetrics(prometheus.NewRegistry())

	runConsumer(t, []Message{msg}, 0, m, processorFunc(func(context.Context, []byte) error { return nil }))

	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(metrics.OutcomeAckFailed)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(metrics.OutcomeAcked)), 0)
}

func TestConsumerRequeuesFailedMessages(t *testing.T) {
	ctrl := gomock.NewController(t)

	msg := newMessage(ctrl, validEvent, 100)
	msg.EXPECT().Nak().Return(nil)

	m := metrics.NewMetrics(prometheus.NewRegistry())

	runConsumer(t, []Message{msg}, 0, m, processorFunc(func(context.Context, []byte) error { return errProcessing }))

	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(metrics.OutcomeRequeued)), 0)
}

func TestConsumerDropsAfterMaxDeliveries(t *testing.T) {
	tests := []struct {
		name    string
		attempt uint64
		dropped bool
	}{
		{name: "below limit", attempt: 2, dropped: false},
		{name: "at limit", attempt: 3, dropped: true},
		{name: "past limit", attempt: 7, dropped: true},
		{name: "unknown attempt", attempt: 0, dropped: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			msg := newMessage(ctrl, validEvent, tt.attempt)
			if tt.dropped {
				msg.EXPECT().Ack().Return(nil)
			} else {
				msg.EXPECT().Nak().Return(nil)
			}

			m := metrics.NewMetrics(prometheus.NewRegistry())

			runConsumer(t, []Message{msg}, 3, m, processorFunc(func(context.Context, []byte) error { return errProcessing }))

			outcome := metrics.OutcomeRequeued
			if tt.dropped {
				outcome = metrics.OutcomeDropped
			}

			assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(outcome)), 0)
		})
	}
}

func TestConsumerProcessesSequentially(t *testing.T) {
	ctrl := gomock.NewController(t)

	var (
		mu       sync.Mutex
		inFlight int
		order    []string
	)

	bodies := []string{"first", "second", "third"}
	msgs := make([]Message, 0, len(bodies))

	for _, body := range bodies {
		msg := newMessage(ctrl, body, 1)
		msg.EXPECT().Ack().Return(nil)
		msgs = append(msgs, msg)
	}

	runConsumer(t, msgs, 0, nil, processorFunc(func(_ context.Context, body []byte) error {
		mu.Lock()
		inFlight++
		assert.Equal(t, 1, inFlight)
		order = append(order, string(body))
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		return nil
	}))

	assert.Equal(t, bodies, order)
}

func TestConsumerKeepsGoingWhenSettlementFails(t *testing.T) {
	ctrl := gomock.NewController(t)

	first := newMessage(ctrl, "a", 1)
	first.EXPECT().Nak().Return(errors.New("channel closed"))

	second := newMessage(ctrl, "b", 1)
	second.EXPECT().Ack().Return(nil)

	calls := 0

	runConsumer(t, []Message{first, second}, 0, nil, processorFunc(func(context.Context, []byte) error {
		calls++
		if calls == 1 {
			return errProcessing
		}

		return nil
	}))

	assert.Equal(t, 2, calls)
}

func TestConsumerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	c := NewConsumer(&fakeSource{}, 0, nil, logger.NewTestLogger())

	done := make(chan error, 1)

	go func() {
		done <- c.ProcessMessages(ctx, processorFunc(func(context.Context, []byte) error { return nil }))
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumerEndToEnd(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		status    int
		wantAck   bool
		wantCalls int32
	}{
		{name: "dashboard created", body: validEvent, status: http.StatusOK, wantAck: true, wantCalls: 1},
		{name: "grafana error", body: validEvent, status: http.StatusInternalServerError, wantAck: false, wantCalls: 1},
		{name: "missing url", body: `{"payload":{}}`, status: http.StatusOK, wantAck: false, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client, calls := fakeGrafana(t, tt.status)

			msg := newMessage(ctrl, tt.body, 1)
			if tt.wantAck {
				msg.EXPECT().Ack().Return(nil)
			} else {
				msg.EXPECT().Nak().Return(nil)
			}

			runConsumer(t, []Message{msg}, 0, nil, NewProcessor(client, logger.NewTestLogger()))

			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}
