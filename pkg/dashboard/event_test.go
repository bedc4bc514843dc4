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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerCreatedEventDecode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		workerID WorkerID
		url      string
		payload  bool
	}{
		{
			name:     "string id",
			body:     `{"payload":{"worker_id":"abc123","url":"https://example.com/health"}}`,
			workerID: "abc123",
			url:      "https://example.com/health",
			payload:  true,
		},
		{
			name:     "numeric id",
			body:     `{"payload":{"worker_id":42,"url":"https://example.com"}}`,
			workerID: "42",
			url:      "https://example.com",
			payload:  true,
		},
		{
			name:     "unknown fields ignored",
			body:     `{"event":"worker.created","payload":{"worker_id":"x","url":"u","interval":30}}`,
			workerID: "x",
			url:      "u",
			payload:  true,
		},
		{
			name:    "null payload",
			body:    `{"payload":null}`,
			payload: false,
		},
		{
			name:    "null worker id",
			body:    `{"payload":{"worker_id":null}}`,
			payload: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event WorkerCreatedEvent
			require.NoError(t, json.Unmarshal([]byte(tt.body), &event))

			if !tt.payload {
				assert.Nil(t, event.Payload)
				return
			}

			require.NotNil(t, event.Payload)
			assert.Equal(t, tt.workerID, event.Payload.WorkerID)
			assert.Equal(t, tt.url, event.Payload.URL)
		})
	}
}

func TestWorkerIDRejectsObjects(t *testing.T) {
	var event WorkerCreatedEvent

	err := json.Unmarshal([]byte(`{"payload":{"worker_id":{"a":1}}}`), &event)
	require.ErrorIs(t, err, ErrInvalidWorkerID)
}
