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

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.MessageHandled(OutcomeAcked, 20*time.Millisecond)
	m.MessageHandled(OutcomeRequeued, time.Second)
	m.MessageHandled(OutcomeRequeued, time.Second)
	m.DashboardResponse(200)
	m.DashboardResponse(500)
	m.DashboardResponse(0)
	m.SetBrokerConnected(true)

	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(OutcomeAcked)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MessagesTotal.WithLabelValues(OutcomeRequeued)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DashboardRequestsTotal.WithLabelValues("500")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DashboardRequestsTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BrokerConnected), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProcessingDuration))

	m.SetBrokerConnected(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.BrokerConnected), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.MessageHandled(OutcomeDropped, time.Second)
		m.DashboardResponse(200)
		m.SetBrokerConnected(true)
	})
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewMetrics(reg)
	m.MessageHandled(OutcomeAcked, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `grafanagen_messages_total{outcome="acked"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
