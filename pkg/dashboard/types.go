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

package dashboard

// Definition is the dashboard document accepted by Grafana's
// /api/dashboards/db endpoint.
type Definition struct {
	ID            *int      `json:"id"`
	UID           string    `json:"uid"`
	Title         string    `json:"title"`
	Tags          []string  `json:"tags"`
	Timezone      string    `json:"timezone"`
	SchemaVersion int       `json:"schemaVersion"`
	Version       int       `json:"version"`
	Panels        []Panel   `json:"panels"`
	Time          TimeRange `json:"time"`
}

type TimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Panel is one visualization on the dashboard.
type Panel struct {
	ID          int                    `json:"id"`
	Title       string                 `json:"title"`
	Type        string                 `json:"type"`
	Targets     []Target               `json:"targets"`
	GridPos     GridPos                `json:"gridPos"`
	FieldConfig FieldConfig            `json:"fieldConfig"`
	Options     map[string]interface{} `json:"options"`
}

// GridPos places a panel on Grafana's 24 column grid.
type GridPos struct {
	H int `json:"h"`
	W int `json:"w"`
	X int `json:"x"`
	Y int `json:"y"`
}

type FieldConfig struct {
	Defaults  FieldDefaults `json:"defaults"`
	Overrides []interface{} `json:"overrides"`
}

type FieldDefaults struct {
	Unit       string      `json:"unit"`
	Min        *float64    `json:"min,omitempty"`
	Thresholds []Threshold `json:"thresholds,omitempty"`
}

type Threshold struct {
	Color string  `json:"color"`
	Value float64 `json:"value"`
}

type DatasourceRef struct {
	UID string `json:"uid"`
}

// Target is a MongoDB datasource query. QueryText holds the serialized
// aggregation pipeline; Pipeline keeps the structured form for callers that
// need to inspect it and is not sent to Grafana.
type Target struct {
	Datasource DatasourceRef `json:"datasource"`
	Database   string        `json:"database"`
	Collection string        `json:"collection"`
	QueryText  string        `json:"queryText"`
	QueryType  string        `json:"queryType"`
	RefID      string        `json:"refId"`
	Pipeline   Pipeline      `json:"-"`
}
