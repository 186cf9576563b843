package hubspot

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cospark/hubspot-proxy/internal/contact"
	"github.com/cospark/hubspot-proxy/internal/xerrors"
)

// ErrConflictNotFound means create reported a duplicate but the follow-up
// email search matched nothing. The CRM is in a state we won't guess at,
// so the orchestration stops instead of creating a second contact.
var ErrConflictNotFound = xerrors.New("contact reported as existing but not found by email search")

// Outcome says which path an upsert took, for metrics and logs.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
)

// UpsertContact ensures a contact with the given email exists with the
// supplied attributes: create first, and on a duplicate-email conflict
// search by email and patch the first match (with the email key removed).
// The returned body is HubSpot's representation of the resulting contact
// (create response or patch response). No call is retried; the first
// failure surfaces immediately.
func (c *Client) UpsertContact(ctx context.Context, props contact.Properties) (json.RawMessage, Outcome, error) {
	body, err := c.CreateContact(ctx, props)
	if err == nil {
		return body, OutcomeCreated, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, "", err
	}

	email := props["email"]
	c.logger.Info(ctx, "contact exists, switching to update", "email", email)

	id, found, err := c.SearchContactByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", ErrConflictNotFound
	}

	body, err = c.UpdateContact(ctx, id, props.WithoutEmail())
	if err != nil {
		return nil, "", err
	}
	return body, OutcomeUpdated, nil
}
