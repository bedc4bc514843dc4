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
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pingtower/grafana-gen/pkg/logger"
)

const (
	defaultPullExpiry = 2 * time.Second
	defaultFetchRetry = time.Second
	defaultAckWait    = 30 * time.Second
)

// pullConsumer is the part of jetstream.Consumer the source needs.
type pullConsumer interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

type jetStreamSource struct {
	nc         *nats.Conn
	consumer   pullConsumer
	expiry     time.Duration
	retryDelay time.Duration
	logger     logger.Logger
}

// connectJetStream opens a durable pull consumer with at most one unacked
// message, creating the stream and consumer when they do not exist yet.
func connectJetStream(ctx context.Context, cfg *NATSConfig, maxDeliveries int, ackWait time.Duration, log logger.Logger) (*jetStreamSource, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name(clientName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}

	var js jetstream.JetStream

	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return nil, err
	}

	_, err = js.Stream(ctx, cfg.StreamName)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: []string{cfg.Subject},
		})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get stream %s: %w", cfg.StreamName, err)
	}

	consumer, err := js.Consumer(ctx, cfg.StreamName, cfg.ConsumerName)
	if err != nil {
		consumer, err = js.CreateConsumer(ctx, cfg.StreamName, consumerConfig(cfg, maxDeliveries, ackWait))
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create consumer %s: %w", cfg.ConsumerName, err)
		}
	}

	log.Info().
		Str("stream_name", cfg.StreamName).
		Str("consumer_name", cfg.ConsumerName).
		Str("subject", cfg.Subject).
		Msg("Subscribed to JetStream consumer")

	return &jetStreamSource{
		nc:         nc,
		consumer:   consumer,
		expiry:     defaultPullExpiry,
		retryDelay: defaultFetchRetry,
		logger:     log,
	}, nil
}

func consumerConfig(cfg *NATSConfig, maxDeliveries int, ackWait time.Duration) jetstream.ConsumerConfig {
	if ackWait <= 0 {
		ackWait = defaultAckWait
	}

	maxDeliver := -1
	if maxDeliveries > 0 {
		maxDeliver = maxDeliveries
	}

	return jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliver,
		MaxAckPending: 1,
		FilterSubject: cfg.Subject,
	}
}

// Next fetches a single message, polling until one arrives. Transient fetch
// errors are retried after retryDelay.
func (s *jetStreamSource) Next(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := s.consumer.Fetch(1, jetstream.FetchMaxWait(s.expiry))
		if err != nil {
			if isFatalFetchError(err) {
				return nil, fmt.Errorf("%w: %w", ErrSourceClosed, err)
			}

			s.logger.Warn().Err(err).Msg("Failed to fetch messages")

			if err := s.waitRetry(ctx); err != nil {
				return nil, err
			}

			continue
		}

		if msg, ok := <-batch.Messages(); ok {
			return jetStreamMessage{msg: msg}, nil
		}

		if err := batch.Error(); err != nil && isFatalFetchError(err) {
			return nil, fmt.Errorf("%w: %w", ErrSourceClosed, err)
		}
	}
}

func (s *jetStreamSource) waitRetry(ctx context.Context) error {
	delay := s.retryDelay
	if delay <= 0 {
		delay = defaultFetchRetry
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func isFatalFetchError(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, jetstream.ErrConsumerDeleted) ||
		errors.Is(err, jetstream.ErrConsumerNotFound) ||
		errors.Is(err, context.Canceled)
}

func (s *jetStreamSource) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}

	return nil
}

type jetStreamMessage struct {
	msg jetstream.Msg
}

func (m jetStreamMessage) Data() []byte { return m.msg.Data() }

func (m jetStreamMessage) Ack() error { return m.msg.Ack() }

func (m jetStreamMessage) Nak() error { return m.msg.Nak() }

func (m jetStreamMessage) NumDelivered() uint64 {
	md, err := m.msg.Metadata()
	if err != nil {
		return 0
	}

	return md.NumDelivered
}

func (m jetStreamMessage) Ref() string {
	md, err := m.msg.Metadata()
	if err != nil {
		return m.msg.Subject()
	}

	return strconv.FormatUint(md.Sequence.Stream, 10)
}
