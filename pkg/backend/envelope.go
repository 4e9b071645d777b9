package backend

import (
	"encoding/json"
	"fmt"
)

// Envelope is the response wrapper every endpoint returns: a success
// flag plus either a payload under an endpoint-specific key or a message.
type Envelope struct {
	Success bool
	Message string
	fields  map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var success bool
	if raw, ok := fields["success"]; ok {
		if err := json.Unmarshal(raw, &success); err != nil {
			return fmt.Errorf("success flag: %w", err)
		}
	}

	var message string
	if raw, ok := fields["message"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &message); err != nil {
			return fmt.Errorf("message: %w", err)
		}
	}

	e.Success = success
	e.Message = message
	e.fields = fields
	return nil
}

// Has reports whether the envelope carries key.
func (e *Envelope) Has(key string) bool {
	_, ok := e.fields[key]
	return ok
}

// Payload decodes the value stored under key into v. A missing or null
// key leaves v untouched.
func (e *Envelope) Payload(key string, v any) error {
	raw, ok := e.fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Result is the decoded outcome of a successful mutating call.
type Result struct {
	Message string

	// Identifiers some endpoints return alongside the message.
	AccountID     int64
	AccountNumber string
	TransactionID int64
	LoanID        int64
}

func resultFrom(env *Envelope) (Result, error) {
	res := Result{Message: env.Message}
	for key, dst := range map[string]any{
		"account_id":     &res.AccountID,
		"account_number": &res.AccountNumber,
		"transaction_id": &res.TransactionID,
		"loan_id":        &res.LoanID,
	} {
		if err := env.Payload(key, dst); err != nil {
			return Result{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return res, nil
}
