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
	"time"

	"github.com/pingtower/grafana-gen/pkg/logger"
	"github.com/pingtower/grafana-gen/pkg/metrics"
)

// Consumer pulls one message at a time from a Source and settles it before
// pulling the next.
type Consumer struct {
	source        Source
	maxDeliveries uint64
	metrics       *metrics.Metrics
	logger        logger.Logger
}

// NewConsumer creates a consumer over source. With maxDeliveries > 0 a
// message failing on its maxDeliveries-th attempt is acknowledged and dropped
// instead of requeued; 0 requeues forever.
func NewConsumer(source Source, maxDeliveries int, m *metrics.Metrics, log logger.Logger) *Consumer {
	c := &Consumer{source: source, metrics: m, logger: log}

	if maxDeliveries > 0 {
		c.maxDeliveries = uint64(maxDeliveries)
	}

	return c
}

// ProcessMessages runs until ctx is cancelled, returning nil, or until the
// source fails, returning its error.
func (c *Consumer) ProcessMessages(ctx context.Context, processor MessageProcessor) error {
	c.logger.Info().Msg("Waiting for messages")

	for {
		msg, err := c.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("Stopping message processing due to context cancellation")

				return nil
			}

			return err
		}

		if msg == nil {
			continue
		}

		c.handle(ctx, msg, processor)
	}
}

func (c *Consumer) handle(ctx context.Context, msg Message, processor MessageProcessor) {
	start := time.Now()
	attempt := msg.NumDelivered()

	err := processor.Process(ctx, msg.Data())
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			c.logger.Error().
				Err(ackErr).
				Str("ref", msg.Ref()).
				Uint64("attempt", attempt).
				Msg("Dashboard created but message could not be acknowledged")
			c.metrics.MessageHandled(metrics.OutcomeAckFailed, time.Since(start))

			return
		}

		c.metrics.MessageHandled(metrics.OutcomeAcked, time.Since(start))
		c.logger.Info().Str("ref", msg.Ref()).Uint64("attempt", attempt).Msg("Message acknowledged (dashboard created)")

		return
	}

	if c.maxDeliveries > 0 && attempt >= c.maxDeliveries {
		c.logger.Error().
			Err(err).
			Str("ref", msg.Ref()).
			Uint64("attempt", attempt).
			Uint64("max_deliveries", c.maxDeliveries).
			Msg("Dropping message after final delivery attempt")

		if ackErr := msg.Ack(); ackErr != nil {
			c.logger.Error().Err(ackErr).Str("ref", msg.Ref()).Msg("Failed to acknowledge dropped message")
		}

		c.metrics.MessageHandled(metrics.OutcomeDropped, time.Since(start))

		return
	}

	c.logger.Error().
		Err(err).
		Str("ref", msg.Ref()).
		Uint64("attempt", attempt).
		Msg("Dashboard not created, message will be requeued")

	if nakErr := msg.Nak(); nakErr != nil {
		c.logger.Error().Err(nakErr).Str("ref", msg.Ref()).Msg("Failed to requeue message")
	}

	c.metrics.MessageHandled(metrics.OutcomeRequeued, time.Since(start))
}
