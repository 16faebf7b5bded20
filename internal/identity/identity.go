// Package identity models the acting identity of a request: either the
// registered account itself or one of the account's personas. Authored
// rows (posts, comments, votes, saves) store this as a pair of nullable
// foreign keys of which exactly one is set; inside the application the
// identity is a single value and the nullable pair exists only at the
// storage boundary.
package identity

// Identity is the disjoint union of an account acting as itself and an
// account acting through a persona. Construct with AsAccount or
// AsPersona; the zero value is the anonymous viewer (see Anonymous).
type Identity struct {
	accountID int64
	personaID int64
	isPersona bool
}

// Anonymous is the identity of an unauthenticated viewer. It matches no
// stored interactions and must never author records.
func Anonymous() Identity { return Identity{} }

// AsAccount returns the identity of an account acting as itself.
func AsAccount(accountID int64) Identity {
	return Identity{accountID: accountID}
}

// AsPersona returns the identity of an account acting through one of
// its personas. Callers must have verified that the persona belongs to
// the account (Resolver does this).
func AsPersona(accountID, personaID int64) Identity {
	return Identity{accountID: accountID, personaID: personaID, isPersona: true}
}

// IsPersona reports whether the identity is a persona.
func (id Identity) IsPersona() bool { return id.isPersona }

// AccountID returns the authenticated account id. Always available,
// even when acting through a persona.
func (id Identity) AccountID() int64 { return id.accountID }

// PersonaID returns the acting persona id and true, or 0 and false when
// the identity is the account itself.
func (id Identity) PersonaID() (int64, bool) {
	if !id.isPersona {
		return 0, false
	}
	return id.personaID, true
}

// AuthorRefs converts the identity to the nullable column pair used by
// authorship-bearing tables. Exactly one of the returned pointers is
// non-nil.
func (id Identity) AuthorRefs() (userID, personaID *int64) {
	if id.isPersona {
		p := id.personaID
		return nil, &p
	}
	u := id.accountID
	return &u, nil
}

// Matches reports whether a stored author column pair refers to this
// identity. A persona-authored row matches only while the same persona
// is acting; the owning account alone does not match it.
func (id Identity) Matches(authorUserID, authorPersonaID *int64) bool {
	if id.isPersona {
		return authorPersonaID != nil && *authorPersonaID == id.personaID
	}
	return authorUserID != nil && *authorUserID == id.accountID
}

// Context is the resolved acting identity for a request, plus the
// display label the serving layer shows next to authored content.
type Context struct {
	Identity
	Label string
}
