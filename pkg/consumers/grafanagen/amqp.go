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

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pingtower/grafana-gen/pkg/logger"
)

const (
	clientName        = "grafana-gen"
	amqpExchangeKind  = "topic"
	amqpHeartbeat     = 10 * time.Second
	amqpDialTimeout   = 30 * time.Second
	deliveryCountHead = "x-delivery-count"
)

// URI renders the connection URI for the configured broker.
func (c *RabbitMQConfig) URI() string {
	vhost := c.VHost
	if vhost == "" {
		vhost = "/"
	}

	return amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Password,
		Vhost:    vhost,
	}.String()
}

type amqpSource struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
	closed     chan *amqp.Error
	logger     logger.Logger
}

// dialAMQP connects, declares the durable queue, binds it and starts a
// manual-ack consumer with a prefetch of one.
func dialAMQP(cfg *RabbitMQConfig, log logger.Logger) (*amqpSource, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(clientName)

	conn, err := amqp.DialConfig(cfg.URI(), amqp.Config{
		Heartbeat:  amqpHeartbeat,
		Locale:     "en_US",
		Properties: props,
		Dial:       amqp.DefaultDial(amqpDialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	s := &amqpSource{conn: conn, closed: make(chan *amqp.Error, 1), logger: log}
	conn.NotifyClose(s.closed)

	if err := s.subscribe(cfg); err != nil {
		_ = conn.Close()

		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Str("exchange", cfg.Exchange).
		Str("queue", cfg.Queue).
		Str("routing_key", cfg.RoutingKey).
		Msg("Subscribed to RabbitMQ queue")

	return s, nil
}

func (s *amqpSource) subscribe(cfg *RabbitMQConfig) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	s.ch = ch

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	if cfg.DeclareExchange {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqpExchangeKind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
		}
	}

	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", q.Name, cfg.Exchange, err)
	}

	deliveries, err := ch.Consume(q.Name, clientName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", q.Name, err)
	}

	s.deliveries = deliveries

	return nil
}

func (s *amqpSource) Next(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.deliveries:
		if !ok {
			return nil, s.closeReason()
		}

		return amqpMessage{d: d}, nil
	}
}

func (s *amqpSource) closeReason() error {
	select {
	case amqpErr, ok := <-s.closed:
		if ok && amqpErr != nil {
			return fmt.Errorf("%w: %w", ErrSourceClosed, amqpErr)
		}
	default:
	}

	return ErrSourceClosed
}

func (s *amqpSource) Close() error {
	var errs []error

	if s.ch != nil {
		if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}

	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type amqpMessage struct {
	d amqp.Delivery
}

func (m amqpMessage) Data() []byte { return m.d.Body }

func (m amqpMessage) Ack() error { return m.d.Ack(false) }

// Nak requeues the delivery on the broker.
func (m amqpMessage) Nak() error { return m.d.Nack(false, true) }

func (m amqpMessage) Ref() string { return strconv.FormatUint(m.d.DeliveryTag, 10) }

// NumDelivered uses the quorum-queue x-delivery-count header, which counts
// earlier deliveries. Classic queues only flag redeliveries.
func (m amqpMessage) NumDelivered() uint64 {
	if n, ok := headerCount(m.d.Headers[deliveryCountHead]); ok {
		return n + 1
	}

	if m.d.Redelivered {
		return 2
	}

	return 1
}

func headerCount(v interface{}) (uint64, bool) {
	var n int64

	switch value := v.(type) {
	case int64:
		n = value
	case int32:
		n = int64(value)
	case int16:
		n = int64(value)
	case int8:
		n = int64(value)
	case int:
		n = int64(value)
	case uint8:
		n = int64(value)
	case uint16:
		n = int64(value)
	case uint32:
		n = int64(value)
	default:
		return 0, false
	}

	if n < 0 {
		return 0, false
	}

	return uint64(n), true
}
