package mailer

import (
	"context"
	"embed"
)

const (
	FromName                    = "Recruitment Desk"
	maxRetries                  = 3
	ApplicationReceivedTemplate = "application_received.tmpl"
)

//go:embed "templates"
var FS embed.FS

// Client sends templated mail. Send gives up once ctx is done, even while a
// delivery attempt is still in flight.
type Client interface {
	Send(ctx context.Context, templateFile, username, email string, data any) error
}
