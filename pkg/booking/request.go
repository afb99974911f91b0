// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package booking

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Field is a request value. Besides JSON strings it accepts numbers and
// booleans as their literal text; null, objects and arrays decode to "".
type Field string

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
	case '{', '[', 'n':
		*f = ""
	default:
		*f = Field(data)
	}
	return nil
}

// Value returns the trimmed text.
func (f Field) Value() string {
	return strings.TrimSpace(string(f))
}

// Request is the inbound booking payload.
type Request struct {
	Name              Field `json:"name"`
	Phone             Field `json:"phone"`
	Service           Field `json:"service"`
	Date              Field `json:"date"`
	Time              Field `json:"time"`
	Notes             Field `json:"notes,omitempty"`
	ConfirmationEmail Field `json:"confirmationEmail"`
	Subject           Field `json:"subject"`
	ReplyTo           Field `json:"replyTo,omitempty"`
}

// Validate returns a *ValidationError listing every blank required field in
// the order name, phone, service, date, time, confirmationEmail, subject.
func (r Request) Validate() error {
	required := []struct {
		name  string
		value Field
	}{
		{"name", r.Name},
		{"phone", r.Phone},
		{"service", r.Service},
		{"date", r.Date},
		{"time", r.Time},
		{"confirmationEmail", r.ConfirmationEmail},
		{"subject", r.Subject},
	}

	var missing []string
	for _, f := range required {
		if f.value.Value() == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
