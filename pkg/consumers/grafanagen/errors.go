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

package grafanagen

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedMessage is returned for bodies that are not a JSON event.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrEmptyMessage is a malformed message without any content.
	ErrEmptyMessage = fmt.Errorf("%w: empty body", ErrMalformedMessage)
	// ErrUnexpectedFailure wraps a panic recovered while processing a message.
	ErrUnexpectedFailure = errors.New("unexpected failure while processing message")
	// ErrSourceClosed is returned by a Source whose subscription ended.
	ErrSourceClosed = errors.New("broker subscription closed")
)
