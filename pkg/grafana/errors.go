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

package grafana

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteSubmissionFailed = errors.New("dashboard submission failed")
	errMissingURL             = errors.New("grafana url is required")
	errNilDashboard           = errors.New("dashboard is nil")
)

// SubmissionError reports a non-200 answer from the dashboard API.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", ErrRemoteSubmissionFailed, e.StatusCode)
	}

	return fmt.Sprintf("%s: status %d: %s", ErrRemoteSubmissionFailed, e.StatusCode, e.Body)
}

func (*SubmissionError) Unwrap() error {
	return ErrRemoteSubmissionFailed
}
