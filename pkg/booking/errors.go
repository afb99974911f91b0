// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package booking

import (
	"fmt"
	"strings"
)

// ValidationError lists required fields that were missing or blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing fields: " + strings.Join(e.Missing, ", ")
}

// RateLimitError is returned when the recipient exhausted its window.
type RateLimitError struct {
	Recipient string
}

func (e *RateLimitError) Error() string {
	return "Too many requests. Please try again later."
}

// TemplateError is returned when a confirmation template cannot be loaded.
type TemplateError struct {
	Err error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template: %v", e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// DeliveryError is returned when every send attempt failed. The outcome has
// already been recorded when this is returned.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return "Unknown error"
	}
	return e.Err.Error()
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StorageError is returned when the ledger append failed. The email may have
// been sent already; it is not retried.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
