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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pingtower/grafana-gen/pkg/dashboard"
	"github.com/pingtower/grafana-gen/pkg/logger"
)

const tracerName = "github.com/pingtower/grafana-gen/pkg/consumers/grafanagen"

// Processor turns a worker-created event into a submitted dashboard.
type Processor struct {
	creator DashboardCreator
	logger  logger.Logger
	tracer  trace.Tracer
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithTracerProvider records spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ProcessorOption {
	return func(p *Processor) {
		p.tracer = tp.Tracer(tracerName)
	}
}

// NewProcessor creates a processor submitting through creator.
func NewProcessor(creator DashboardCreator, log logger.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		creator: creator,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process decodes body, builds the dashboard and submits it. A panic
// anywhere below is returned as ErrUnexpectedFailure.
func (p *Processor) Process(ctx context.Context, body []byte) (err error) {
	ctx, span := p.tracer.Start(ctx, "grafanagen.process",
		trace.WithAttributes(attribute.Int("messaging.message.body.size", len(body))))

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while processing message")

			err = fmt.Errorf("%w: %v", ErrUnexpectedFailure, r)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyMessage
	}

	var event dashboard.WorkerCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	def, err := dashboard.Build(&event)
	if err != nil {
		return err
	}

	span.SetAttributes(
		attribute.String("worker.id", event.Payload.WorkerID.String()),
		attribute.String("dashboard.uid", def.UID),
	)

	p.logger.Debug().
		Str("worker_id", event.Payload.WorkerID.String()).
		Str("url", event.Payload.URL).
		Str("uid", def.UID).
		Msg("Built dashboard")

	return p.creator.CreateDashboard(ctx, def)
}
