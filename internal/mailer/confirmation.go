package mailer

import (
	"context"

	"intake/internal/applications"
)

// Confirmation emails the applicant once their application is recorded.
type Confirmation struct {
	client Client
}

func NewConfirmation(client Client) *Confirmation {
	return &Confirmation{client: client}
}

func (c *Confirmation) ApplicationRecorded(ctx context.Context, r *applications.Receipt) error {
	if r.Email == "" {
		return nil
	}
	data := struct {
		Name            string
		Reference       string
		Amount          string
		Currency        string
		ConfirmationURL string
	}{
		Name:            r.Name,
		Reference:       r.Reference,
		Amount:          applications.FormatAmount(r.Amount),
		Currency:        r.Currency,
		ConfirmationURL: r.RedirectURL,
	}

	return c.client.Send(ctx, ApplicationReceivedTemplate, r.Name, r.Email, data)
}
