package payments

import (
	"encoding/json"
	"strings"
)

// SuccessStatus is the transaction status the provider reports for a settled
// payment.
const SuccessStatus = "success"

// Verification is the raw outcome of one verify call.
type Verification struct {
	StatusCode int
	Body       []byte
	// Payload is nil when Body is not valid JSON; ParseErr says why.
	Payload  *VerifyResponse
	ParseErr error
}

type VerifyResponse struct {
	Status  bool             `json:"status"`
	Message string           `json:"message"`
	Data    *TransactionData `json:"data"`
}

type TransactionData struct {
	Status    string    `json:"status"`
	Reference string    `json:"reference"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    string    `json:"paid_at,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Customer  *Customer `json:"customer"`
}

type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Verified reports whether the provider confirmed a successful transaction.
func (r *VerifyResponse) Verified() bool {
	return r != nil && r.Status && r.Data != nil && r.Data.Status == SuccessStatus
}

// MajorAmount converts the minor-unit amount (kobo, cents) to major units.
func (d *TransactionData) MajorAmount() float64 {
	if d == nil {
		return 0
	}
	return d.Amount / 100
}

// CustomerEmail returns the provider-side payer email, if any.
func (d *TransactionData) CustomerEmail() string {
	if d == nil || d.Customer == nil {
		return ""
	}
	return strings.TrimSpace(d.Customer.Email)
}

// CustomerName joins first and last name as the provider reports them.
func (d *TransactionData) CustomerName() string {
	if d == nil || d.Customer == nil {
		return ""
	}
	return strings.TrimSpace(d.Customer.FirstName + " " + d.Customer.LastName)
}

// Diagnostic returns something worth attaching to an error response: the
// decoded payload when it parsed, otherwise the raw body.
func (v *Verification) Diagnostic() any {
	if v == nil {
		return nil
	}
	if len(v.Body) > 0 && json.Valid(v.Body) {
		return json.RawMessage(v.Body)
	}
	return map[string]any{"raw": string(v.Body)}
}
