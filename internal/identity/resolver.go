package identity

import (
	"context"
	"errors"

	"github.com/discussion-den/den/internal/account"
	"github.com/discussion-den/den/internal/persona"
)

// PersonaLookup is the single read the resolver needs from storage.
// *persona.Store satisfies it.
type PersonaLookup interface {
	GetByID(ctx context.Context, id int64) (*persona.Persona, error)
}

// Resolver turns the session-carried persona selection into the acting
// identity for a request.
type Resolver struct {
	personas PersonaLookup
}

// NewResolver creates a Resolver.
func NewResolver(personas PersonaLookup) *Resolver {
	return &Resolver{personas: personas}
}

// Resolve produces the acting identity for the authenticated account.
// selectedPersonaID is the session-carried selection; zero means none.
//
// Ownership is re-validated on every resolution: a selection that does
// not exist or belongs to a different account is silently dropped and
// the identity falls back to the account itself. The cleared return
// tells the serving layer to rewrite the session so the stale selection
// does not come back on the next request. Storage failures other than
// not-found are propagated: falling back on an identity we could not
// verify would let a mutation proceed under the wrong identity.
func (r *Resolver) Resolve(ctx context.Context, acct *account.Account, selectedPersonaID int64) (ident Context, cleared bool, err error) {
	asAccount := Context{Identity: AsAccount(acct.ID), Label: acct.Username}

	if selectedPersonaID == 0 {
		return asAccount, false, nil
	}

	p, err := r.personas.GetByID(ctx, selectedPersonaID)
	if errors.Is(err, persona.ErrNotFound) {
		return asAccount, true, nil
	}
	if err != nil {
		return Context{}, false, err
	}
	if p.UserID != acct.ID {
		return asAccount, true, nil
	}

	return Context{Identity: AsPersona(acct.ID, p.ID), Label: p.Name}, false, nil
}
