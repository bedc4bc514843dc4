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

// Package dashboard builds the Grafana dashboard provisioned for a newly
// created ping worker.
package dashboard

import (
	"fmt"
)

const (
	uidPrefix        = "worker-"
	maxWorkerIDRunes = 18
	titlePrefix      = "Worker Monitoring - "
	schemaVersion    = 36

	datasourceUID = "mongodb"
	database      = "ping_workers"
	collection    = "ping_data"
	queryType     = "table"
	refID         = "A"

	PanelTimeSeries = "timeseries"
	PanelStat       = "stat"
)

//nolint:gochecknoglobals // fixed layout
var (
	responseTimePos = GridPos{H: 8, W: 12, X: 0, Y: 0}
	statusCodePos   = GridPos{H: 4, W: 6, X: 12, Y: 0}
	bodyLengthPos   = GridPos{H: 4, W: 6, X: 18, Y: 0}
)

// UID derives the dashboard uid for a worker. Grafana caps uids at 40
// characters, so the worker id is cut to its first 18 runes.
func UID(workerID string) string {
	r := []rune(workerID)
	if len(r) > maxWorkerIDRunes {
		r = r[:maxWorkerIDRunes]
	}

	return uidPrefix + string(r)
}

// Build turns a worker-created event into a dashboard definition. It has no
// side effects; the same event always yields the same definition.
func Build(event *WorkerCreatedEvent) (*Definition, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	url := event.Payload.URL

	panels := []struct {
		title  string
		kind   string
		query  Query
		pos    GridPos
		fields FieldDefaults
	}{
		{
			title:  "Response Time (microseconds)",
			kind:   PanelTimeSeries,
			query:  averagePerMinute(url, "duration_microseconds", "avg_duration"),
			pos:    responseTimePos,
			fields: FieldDefaults{Unit: "µs", Min: zero()},
		},
		{
			title: "Status Code",
			kind:  PanelStat,
			query: latest(url, "status_code"),
			pos:   statusCodePos,
			fields: FieldDefaults{
				Unit: "none",
				Thresholds: []Threshold{
					{Color: "green", Value: 200},
					{Color: "blue", Value: 300},
					{Color: "red", Value: 400},
				},
			},
		},
		{
			title:  "Body Length",
			kind:   PanelTimeSeries,
			query:  averagePerMinute(url, "body_length", "avg_body_length"),
			pos:    bodyLengthPos,
			fields: FieldDefaults{Unit: "bytes", Min: zero()},
		},
	}

	def := &Definition{
		UID:           UID(event.Payload.WorkerID.String()),
		Title:         titlePrefix + url,
		Tags:          []string{"auto-generated", "worker", "mongodb"},
		Timezone:      "browser",
		SchemaVersion: schemaVersion,
		Version:       0,
		Panels:        make([]Panel, 0, len(panels)),
		Time:          TimeRange{From: "now-1h", To: "now"},
	}

	for i, p := range panels {
		target, err := newTarget(p.query)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", p.title, err)
		}

		def.Panels = append(def.Panels, Panel{
			ID:          i + 1,
			Title:       p.title,
			Type:        p.kind,
			Targets:     []Target{target},
			GridPos:     p.pos,
			FieldConfig: FieldConfig{Defaults: p.fields, Overrides: []interface{}{}},
			Options:     map[string]interface{}{},
		})
	}

	return def, nil
}

func newTarget(q Query) (Target, error) {
	pipeline := q.Pipeline()

	text, err := pipeline.MarshalExtJSON()
	if err != nil {
		return Target{}, fmt.Errorf("encode pipeline: %w", err)
	}

	return Target{
		Datasource: DatasourceRef{UID: datasourceUID},
		Database:   database,
		Collection: collection,
		QueryText:  text,
		QueryType:  queryType,
		RefID:      refID,
		Pipeline:   pipeline,
	}, nil
}

func zero() *float64 {
	v := 0.0
	return &v
}
