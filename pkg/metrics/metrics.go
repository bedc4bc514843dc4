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

// Package metrics holds the Prometheus collectors of the dashboard generator.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grafanagen"

// Message outcomes.
const (
	OutcomeAcked     = "acked"
	OutcomeRequeued  = "requeued"
	OutcomeDropped   = "dropped"
	OutcomeAckFailed = "ack_failed"
)

// Metrics groups the consumer collectors. A nil *Metrics records nothing.
type Metrics struct {
	MessagesTotal          *prometheus.CounterVec
	ProcessingDuration     prometheus.Histogram
	DashboardRequestsTotal *prometheus.CounterVec
	BrokerConnected        prometheus.Gauge
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// NewMetrics registers the collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Worker-created events handled, by outcome",
			},
			[]string{"outcome"},
		),
		ProcessingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "processing_duration_seconds",
				Help:      "Time from receiving an event to its ack or requeue",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		DashboardRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_requests_total",
				Help:      "Dashboard API requests, by HTTP status code",
			},
			[]string{"code"},
		),
		BrokerConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "broker_connected",
				Help:      "1 while a broker subscription is active",
			},
		),
	}
}

func (m *Metrics) MessageHandled(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.MessagesTotal.WithLabelValues(outcome).Inc()
	m.ProcessingDuration.Observe(elapsed.Seconds())
}

// DashboardResponse counts an API answer; code 0 means no answer arrived.
func (m *Metrics) DashboardResponse(code int) {
	if m == nil {
		return
	}

	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}

	m.DashboardRequestsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) SetBrokerConnected(connected bool) {
	if m == nil {
		return
	}

	if connected {
		m.BrokerConnected.Set(1)
	} else {
		m.BrokerConnected.Set(0)
	}
}

// Handler exposes gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
