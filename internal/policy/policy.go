// Package policy is the single authorization rule evaluator. Every route
// handler goes through Authorize with one of three tiers instead of
// re-deriving role checks inline.
package policy

import "errors"

type Tier int

const (
	// Public requires no credentials.
	Public Tier = iota
	// Authenticated requires any valid session, role irrelevant.
	Authenticated
	// CaptainOrOwner requires the captain role or a matching resource owner.
	CaptainOrOwner
)

const (
	RoleCaptain     = "captain"
	RoleContributor = "contributor"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Actor is the authenticated identity extracted from a session token.
// A nil Actor means the caller presented no valid token.
type Actor struct {
	Role     string
	UserID   string
	UserName string
}

// Authorize evaluates a tier against an actor. Ordering is fixed: a missing
// actor fails with ErrUnauthenticated before any ownership comparison, so
// handlers map the two errors to 401 and 403 respectively.
func Authorize(actor *Actor, tier Tier, ownerID string) error {
	if tier == Public {
		return nil
	}
	if actor == nil {
		return ErrUnauthenticated
	}
	if tier == Authenticated {
		return nil
	}
	if actor.Role == RoleCaptain {
		return nil
	}
	if ownerID != "" && actor.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}
