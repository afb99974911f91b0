package booking

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		Name:              "Jane Doe",
		Phone:             "+49 123 456",
		Service:           "Thai Massage 60 min",
		Date:              "2025-03-14",
		Time:              "15:30",
		ConfirmationEmail: "jane@example.com",
		Subject:           "Your booking",
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		missing []string
	}{
		{name: "complete", mutate: func(*Request) {}},
		{
			name:    "phone and subject missing",
			mutate:  func(r *Request) { r.Phone = ""; r.Subject = "" },
			missing: []string{"phone", "subject"},
		},
		{
			name:    "whitespace counts as missing",
			mutate:  func(r *Request) { r.Name = "   "; r.Time = "\t" },
			missing: []string{"name", "time"},
		},
		{
			name:    "everything missing keeps fixed order",
			mutate:  func(r *Request) { *r = Request{Notes: "n", ReplyTo: "r@x.com"} },
			missing: []string{"name", "phone", "service", "date", "time", "confirmationEmail", "subject"},
		},
		{
			name:   "optional fields may be blank",
			mutate: func(r *Request) { r.Notes = ""; r.ReplyTo = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.missing, verr.Missing)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Missing: []string{"phone", "subject"}}
	assert.Equal(t, "Missing fields: phone, subject", err.Error())
}

func TestFieldUnmarshalJSON(t *testing.T) {
	var r Request
	body := `{"name":" Jane ","phone":491234,"service":true,"date":null,"time":{"h":1},"subject":["a"],"notes":"x"}`
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.Equal(t, "Jane", r.Name.Value())
	assert.Equal(t, "491234", r.Phone.Value())
	assert.Equal(t, "true", r.Service.Value())
	assert.Equal(t, "", r.Date.Value())
	assert.Equal(t, "", r.Time.Value())
	assert.Equal(t, "", r.Subject.Value())
	assert.Equal(t, "x", r.Notes.Value())

	var verr *ValidationError
	require.ErrorAs(t, r.Validate(), &verr)
	assert.Equal(t, []string{"date", "time", "confirmationEmail", "subject"}, verr.Missing)
}
