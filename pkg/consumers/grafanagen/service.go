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
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pingtower/grafana-gen/pkg/lifecycle"
	"github.com/pingtower/grafana-gen/pkg/logger"
	"github.com/pingtower/grafana-gen/pkg/metrics"
)

const (
	shutdownTimeout = 10 * time.Second
	// ackWaitMargin keeps a JetStream message leased while the dashboard
	// request is still allowed to run.
	ackWaitMargin = 20 * time.Second
)

// Service keeps one broker subscription alive and feeds it to a Consumer,
// reconnecting after RECONNECT_DELAY whenever the subscription is lost.
type Service struct {
	cfg            *Config
	processor      MessageProcessor
	metrics        *metrics.Metrics
	logger         logger.Logger
	connectFactory func(context.Context) (Source, error)
	retryDelay     time.Duration
	healthy        atomic.Bool
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// NewService validates cfg and prepares the service.
func NewService(cfg *Config, processor MessageProcessor, m *metrics.Metrics, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:        cfg,
		processor:  processor,
		metrics:    m,
		logger:     log,
		retryDelay: time.Duration(cfg.ReconnectDelay),
	}
	s.connectFactory = s.connect

	return s, nil
}

func (s *Service) connect(ctx context.Context) (Source, error) {
	if strings.EqualFold(s.cfg.Transport, TransportNATS) {
		ackWait := time.Duration(s.cfg.Grafana.Timeout) + ackWaitMargin

		return connectJetStream(ctx, &s.cfg.NATS, s.cfg.MaxDeliveries, ackWait, s.logger)
	}

	return dialAMQP(&s.cfg.RabbitMQ, s.logger)
}

// Start launches the consume loop in the background.
func (s *Service) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.logger.Info().
		Str("transport", s.cfg.Transport).
		Int("max_deliveries", s.cfg.MaxDeliveries).
		Msg("Dashboard generator started")

	return nil
}

func (s *Service) run(ctx context.Context) {
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}

		s.logger.Warn().
			Err(err).
			Dur("retry_in", s.retryDelay).
			Msg("Broker subscription lost, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
	}
}

func (s *Service) runOnce(ctx context.Context) error {
	source, err := s.connectFactory(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	defer func() {
		s.setHealthy(false)

		if err := source.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to close broker subscription")
		}
	}()

	s.setHealthy(true)

	return NewConsumer(source, s.cfg.MaxDeliveries, s.metrics, s.logger).ProcessMessages(ctx, s.processor)
}

func (s *Service) setHealthy(healthy bool) {
	s.healthy.Store(healthy)
	s.metrics.SetBrokerConnected(healthy)
}

// Healthy reports whether a broker subscription is active.
func (s *Service) Healthy() bool {
	return s.healthy.Load()
}

// Stop cancels the consume loop and waits for the in-flight message.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Dashboard generator stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for consumer to stop: %w", ctx.Err())
	}
}

var (
	_ lifecycle.Service        = (*Service)(nil)
	_ lifecycle.HealthReporter = (*Service)(nil)
)
