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

//go:generate mockgen -destination=mock_grafanagen.go -package=grafanagen github.com/pingtower/grafana-gen/pkg/consumers/grafanagen DashboardCreator,Message

package grafanagen

import (
	"context"

	"github.com/pingtower/grafana-gen/pkg/dashboard"
)

// DashboardCreator submits a dashboard definition.
type DashboardCreator interface {
	CreateDashboard(ctx context.Context, def *dashboard.Definition) error
}

// MessageProcessor handles one message body.
type MessageProcessor interface {
	Process(ctx context.Context, body []byte) error
}

// Message is a single broker delivery awaiting a verdict.
type Message interface {
	Data() []byte
	Ack() error
	// Nak returns the message to the broker for redelivery.
	Nak() error
	// NumDelivered is the 1-based delivery attempt, 0 when the broker does
	// not report it.
	NumDelivered() uint64
	// Ref identifies the delivery in logs.
	Ref() string
}

// Source yields messages from one broker subscription. Next blocks until a
// message arrives, ctx ends, or the subscription is lost.
type Source interface {
	Next(ctx context.Context) (Message, error)
	Close() error
}
