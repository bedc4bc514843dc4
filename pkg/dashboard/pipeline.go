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

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	timeField      = "request_time"
	bucketMillis   = 60000
	defaultLimit   = 100
	fromVariable   = "$__from"
	toVariable     = "$__to"
	stageMatch     = "$match"
	stageGroup     = "$group"
	stageProject   = "$project"
	stageSort      = "$sort"
	stageLimit     = "$limit"
	sortAscending  = 1
	sortDescending = -1
	projectInclude = 1
	projectExclude = 0
)

// Pipeline is an ordered list of aggregation stages.
type Pipeline []bson.D

// Query describes an aggregation over the ping data collection. The match
// stage is always anchored to the dashboard time range; Match only adds
// predicates after it.
type Query struct {
	Match   bson.D
	Group   bson.D
	Project bson.D
	Sort    bson.D
	Limit   int
}

// Pipeline assembles the stages in match, group, project, sort, limit order.
// Empty optional stages are omitted.
func (q Query) Pipeline() Pipeline {
	match := bson.D{{Key: "$expr", Value: timeWindow()}}

	for _, e := range q.Match {
		if e.Key == timeField {
			continue
		}

		match = append(match, e)
	}

	p := Pipeline{{{Key: stageMatch, Value: match}}}

	if len(q.Group) > 0 {
		p = append(p, bson.D{{Key: stageGroup, Value: q.Group}})
	}

	if len(q.Project) > 0 {
		p = append(p, bson.D{{Key: stageProject, Value: q.Project}})
	}

	if len(q.Sort) > 0 {
		p = append(p, bson.D{{Key: stageSort, Value: q.Sort}})
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	return append(p, bson.D{{Key: stageLimit, Value: limit}})
}

// Stage returns the value of the first stage with the given operator.
func (p Pipeline) Stage(op string) (interface{}, bool) {
	for _, stage := range p {
		if len(stage) == 1 && stage[0].Key == op {
			return stage[0].Value, true
		}
	}

	return nil, false
}

// MarshalExtJSON renders the pipeline as relaxed MongoDB extended JSON,
// keeping the declared key order of every stage.
func (p Pipeline) MarshalExtJSON() (string, error) {
	var b strings.Builder

	b.WriteByte('[')

	for i, stage := range p {
		if i > 0 {
			b.WriteByte(',')
		}

		raw, err := bson.MarshalExtJSON(stage, false, false)
		if err != nil {
			return "", fmt.Errorf("stage %d: %w", i, err)
		}

		b.Write(raw)
	}

	b.WriteByte(']')

	return b.String(), nil
}

// timeWindow restricts documents to the range Grafana substitutes for
// $__from and $__to when the panel is rendered.
func timeWindow() bson.D {
	return bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$gt", Value: bson.A{"$" + timeField, toDate(fromVariable)}}},
		bson.D{{Key: "$lt", Value: bson.A{"$" + timeField, toDate(toVariable)}}},
	}}}
}

func toDate(v interface{}) bson.D {
	return bson.D{{Key: "$toDate", Value: toLong(v)}}
}

func toLong(v interface{}) bson.D {
	return bson.D{{Key: "$toLong", Value: v}}
}

// minuteBucket truncates request_time to the start of its minute.
func minuteBucket() bson.D {
	ts := "$" + timeField

	return bson.D{{Key: "$toDate", Value: bson.D{{Key: "$subtract", Value: bson.A{
		toLong(ts),
		bson.D{{Key: "$mod", Value: bson.A{toLong(ts), bucketMillis}}},
	}}}}}
}

// averagePerMinute groups matching documents into one-minute buckets and
// averages field into alias, sorted oldest first.
func averagePerMinute(url, field, alias string) Query {
	return Query{
		Match: urlMatch(url),
		Group: bson.D{
			{Key: "_id", Value: bson.D{{Key: "interval", Value: minuteBucket()}}},
			{Key: alias, Value: bson.D{{Key: "$avg", Value: "$" + field}}},
		},
		Project: bson.D{
			{Key: "interval", Value: "$_id.interval"},
			{Key: alias, Value: projectInclude},
			{Key: "_id", Value: projectExclude},
		},
		Sort:  bson.D{{Key: "interval", Value: sortAscending}},
		Limit: defaultLimit,
	}
}

// latest selects the newest matching document.
func latest(url string, fields ...string) Query {
	project := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		project = append(project, bson.E{Key: f, Value: projectInclude})
	}

	project = append(project, bson.E{Key: timeField, Value: projectInclude})

	return Query{
		Match:   urlMatch(url),
		Project: project,
		Sort:    bson.D{{Key: timeField, Value: sortDescending}},
		Limit:   1,
	}
}

func urlMatch(url string) bson.D {
	return bson.D{{Key: "url", Value: bson.D{{Key: "$eq", Value: url}}}}
}
