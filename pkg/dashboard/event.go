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
	"fmt"
	"strings"
)

// WorkerCreatedEvent is the body published when a ping worker is created.
type WorkerCreatedEvent struct {
	Payload *WorkerPayload `json:"payload"`
}

// WorkerPayload carries the fields the dashboard is derived from. Unknown
// fields in the message are ignored.
type WorkerPayload struct {
	WorkerID WorkerID `json:"worker_id"`
	URL      string   `json:"url"`
}

// WorkerID is an opaque worker identifier. Producers send it either as a
// JSON string or as a bare number; numbers keep their literal form.
type WorkerID string

// UnmarshalJSON accepts string, number and null encodings.
func (w *WorkerID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))

	switch {
	case raw == "null":
		*w = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*w = WorkerID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidWorkerID, raw)
	}

	*w = WorkerID(n.String())

	return nil
}

func (w WorkerID) String() string {
	return string(w)
}

// Validate reports the first missing required field.
func (e *WorkerCreatedEvent) Validate() error {
	if e == nil || e.Payload == nil {
		return ErrMissingPayload
	}

	if strings.TrimSpace(e.Payload.URL) == "" {
		return ErrMissingURL
	}

	if strings.TrimSpace(e.Payload.WorkerID.String()) == "" {
		return ErrMissingWorkerID
	}

	return nil
}
