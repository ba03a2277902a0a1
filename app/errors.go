// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFrozen is returned when the pipeline or routes change after the
// application was built.
var ErrFrozen = errors.New("application already built")

// ConfigError describes one invalid configuration field.
//
// Field uses the configuration key path, e.g. "routes[0].path", so errors
// point at the file the value came from.
type ConfigError struct {
	// Field is the configuration key that failed validation.
	Field string
	// Value is the provided value, nil when missing.
	Value any
	// Message explains the failure.
	Message string
	// Constraint names the violated rule, e.g. "required" or "oneof".
	Constraint string
}

func (e *ConfigError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("configuration error in %s: %s (constraint: %s, value: %v)",
			e.Field, e.Message, e.Constraint, e.Value)
	}
	if e.Value != nil {
		return fmt.Sprintf("configuration error in %s: %s (value: %v)",
			e.Field, e.Message, e.Value)
	}

	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// ValidationError collects every ConfigError found in one pass.
type ValidationError struct {
	Errors []*ConfigError
}

func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation errors: (no errors)"
	}
	if len(ve.Errors) == 1 {
		return ve.Errors[0].Error()
	}

	var msg strings.Builder
	_, _ = fmt.Fprintf(&msg, "validation errors (%d):", len(ve.Errors))
	for i, err := range ve.Errors {
		_, _ = fmt.Fprintf(&msg, "\n  %d. %s", i+1, err.Error())
	}

	return msg.String()
}

// Add appends err.
func (ve *ValidationError) Add(err *ConfigError) {
	ve.Errors = append(ve.Errors, err)
}

// HasErrors reports whether any error was collected.
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToError returns ve, or nil when it holds no errors.
func (ve *ValidationError) ToError() error {
	if !ve.HasErrors() {
		return nil
	}

	return ve
}

func newFieldError(field string, value any, message, constraint string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Message:    message,
		Constraint: constraint,
	}
}

func newEmptyFieldError(field string) *ConfigError {
	return newFieldError(field, nil, "cannot be empty", "required")
}

func newInvalidValueError(field string, value any, message string) *ConfigError {
	return newFieldError(field, value, message, "")
}

func newInvalidEnumError(field string, value any, validValues []string) *ConfigError {
	return newFieldError(field, value,
		fmt.Sprintf("must be one of: %v", validValues),
		fmt.Sprintf("enum: %v", validValues))
}

func newTimeoutError(field string, value time.Duration) *ConfigError {
	return newFieldError(field, value,
		fmt.Sprintf("timeout must be positive, got: %s", value),
		"must be positive")
}

func newComparisonError(field1, field2 string, value1, value2 any, message string) *ConfigError {
	return newFieldError(field1, value1,
		fmt.Sprintf("%s (compared with %s: %v)", message, field2, value2),
		fmt.Sprintf("%s vs %s", field1, field2))
}
