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

package main

import (
	"context"
	"log"
	"os"

	"github.com/pingtower/grafana-gen/pkg/config"
	"github.com/pingtower/grafana-gen/pkg/consumers/grafanagen"
	"github.com/pingtower/grafana-gen/pkg/grafana"
	"github.com/pingtower/grafana-gen/pkg/lifecycle"
	"github.com/pingtower/grafana-gen/pkg/logger"
	"github.com/pingtower/grafana-gen/pkg/metrics"
	"github.com/pingtower/grafana-gen/pkg/version"
)

const serviceName = "grafana-gen"

func main() {
	ctx := context.Background()

	cfg := grafanagen.DefaultConfig()

	// Environment by default; CONFIG_SOURCE=file with CONFIG_PATH reads JSON instead.
	if err := config.NewConfig(nil).LoadAndValidate(ctx, "", cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	loggerConfig := cfg.Logging
	if loggerConfig == nil {
		loggerConfig = logger.DefaultConfig()
	}

	serviceLogger, err := lifecycle.CreateComponentLogger(ctx, serviceName, loggerConfig)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	clientLogger, err := lifecycle.CreateComponentLogger(ctx, "grafana-client", loggerConfig)
	if err != nil {
		log.Fatalf("Failed to initialize grafana client logger: %v", err)
	}

	tp, err := logger.InitializeTracing(ctx, logger.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.GetVersion(),
		Logger:         serviceLogger,
		OTel:           &loggerConfig.OTel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			serviceLogger.Warn().Err(err).Msg("Tracer provider shutdown failed")
		}
	}()

	if cfg.Grafana.APIKey == grafana.PlaceholderAPIKey {
		serviceLogger.Warn().Msg("GRAFANA_API_KEY is not set; dashboard requests will be rejected")
	}

	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)

	client := grafana.NewClient(cfg.Grafana, clientLogger, grafana.WithResponseObserver(m.DashboardResponse))
	processor := grafanagen.NewProcessor(client, serviceLogger, grafanagen.WithTracerProvider(tp))

	svc, err := grafanagen.NewService(cfg, processor, m, serviceLogger)
	if err != nil {
		log.Fatalf("Failed to initialize grafana-gen service: %v", err)
	}

	serviceLogger.Info().
		Str("version", version.GetFullVersion()).
		Str("transport", cfg.Transport).
		Str("grafana_url", cfg.Grafana.URL).
		Msg("Starting dashboard generator")

	opts := &lifecycle.ServerOptions{
		ListenAddr:  cfg.ListenAddr,
		MetricsAddr: cfg.MetricsAddr,
		ServiceName: serviceName,
		Service:     svc,
		Gatherer:    registry,
		Logger:      serviceLogger,
	}

	if err := lifecycle.RunServer(ctx, opts); err != nil {
		serviceLogger.Error().Err(err).Msg("Server failed")
		os.Exit(1) //nolint:gocritic // tracing is best-effort on a failed exit
	}
}
