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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	grpcsrv "github.com/pingtower/grafana-gen/pkg/grpc"
	"github.com/pingtower/grafana-gen/pkg/logger"
	"github.com/pingtower/grafana-gen/pkg/metrics"
)

const (
	defaultHealthInterval  = time.Second
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

var errServiceRequired = errors.New("lifecycle: service is required")

// ServerOptions configures RunServer. Empty addresses disable the matching
// endpoint.
type ServerOptions struct {
	ListenAddr      string
	MetricsAddr     string
	ServiceName     string
	Service         Service
	Gatherer        prometheus.Gatherer
	Logger          logger.Logger
	HealthInterval  time.Duration
	ShutdownTimeout time.Duration
}

type healthSetter interface {
	SetServing(service string, serving bool)
}

// RunServer starts opts.Service with its endpoints and blocks until ctx is
// cancelled, SIGINT/SIGTERM arrives, or an endpoint fails. The service is
// then stopped within ShutdownTimeout.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	if opts == nil || opts.Service == nil {
		return errServiceRequired
	}

	log := opts.Logger
	if log == nil {
		impl, err := NewLoggerImpl(nil)
		if err != nil {
			return err
		}

		log = impl
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	errCh := make(chan error, 2)

	grpcServer, err := startGRPC(opts, log, errCh)
	if err != nil {
		return err
	}

	httpServer, err := startMetrics(opts, log, errCh)
	if err != nil {
		if grpcServer != nil {
			grpcServer.Stop(context.Background())
		}

		return err
	}

	shutdown := func(runErr error) error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := opts.Service.Stop(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to stop %s: %w", opts.ServiceName, err))
		}

		if grpcServer != nil {
			grpcServer.Stop(shutdownCtx)
		}

		if httpServer != nil {
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Metrics server shutdown failed")
			}
		}

		log.Info().Str("service", opts.ServiceName).Msg("Service stopped")

		return runErr
	}

	if err := opts.Service.Start(ctx); err != nil {
		return shutdown(fmt.Errorf("failed to start %s: %w", opts.ServiceName, err))
	}

	if grpcServer != nil {
		interval := opts.HealthInterval
		if interval <= 0 {
			interval = defaultHealthInterval
		}

		go watchHealth(ctx, grpcServer, opts.Service, opts.ServiceName, interval)
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown requested")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Endpoint failed, shutting down")
	}

	return shutdown(runErr)
}

func startGRPC(opts *ServerOptions, log logger.Logger, errCh chan<- error) (*grpcsrv.Server, error) {
	if opts.ListenAddr == "" {
		return nil, nil
	}

	srv := grpcsrv.NewServer(opts.ListenAddr, log)

	setStatus(srv, opts.ServiceName, false)

	if err := srv.Listen(); err != nil {
		return nil, err
	}

	go func() {
		if err := srv.Serve(); err != nil {
			errCh <- err
		}
	}()

	return srv, nil
}

func startMetrics(opts *ServerOptions, log logger.Logger, errCh chan<- error) (*http.Server, error) {
	if opts.MetricsAddr == "" || opts.Gatherer == nil {
		return nil, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(opts.Gatherer))

	lc := &net.ListenConfig{}

	lis, err := lc.Listen(context.Background(), "tcp", opts.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.MetricsAddr, err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	log.Info().Str("addr", lis.Addr().String()).Msg("Metrics server listening")

	return srv, nil
}

// watchHealth mirrors the service's readiness into the health server until
// ctx is done. Services without a HealthReporter are serving once started.
func watchHealth(ctx context.Context, hs healthSetter, svc Service, name string, interval time.Duration) {
	reporter, ok := svc.(HealthReporter)
	if !ok {
		setStatus(hs, name, true)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		setStatus(hs, name, reporter.Healthy())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func setStatus(hs healthSetter, name string, serving bool) {
	hs.SetServing("", serving)

	if name != "" {
		hs.SetServing(name, serving)
	}
}
