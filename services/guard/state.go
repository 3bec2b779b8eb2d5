package guard

import "time"

type State string

const (
	// StateUnprotected means the page is not configured as protected.
	StateUnprotected State = "unprotected"
	// StateAccessDenied is terminal: the caller's role or type is not in
	// the authorized set, so no password prompt is offered.
	StateAccessDenied State = "access-denied"
	// StateUnauthenticated means the page is protected and no valid
	// session exists for this caller.
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Caller is the identity the guard evaluates a page against.
type Caller struct {
	UserID string
	Email  string
	Role   string
	Type   string
}

// Evaluate derives the guard state for one caller on one page. A session
// counts only while now is before its expiry and its stored identity
// matches the caller; anything else is treated as no session.
func Evaluate(s Settings, caller Caller, page string, sess *Session, now time.Time) State {
	p, ok := s.ProtectedPages[page]
	if !ok || !p.Enabled {
		return StateUnprotected
	}

	if !contains(s.AuthorizedRoles, caller.Role) || !contains(s.AuthorizedUserTypes, caller.Type) {
		return StateAccessDenied
	}

	if sess == nil ||
		!now.Before(sess.Expiry) ||
		sess.UserID != caller.UserID ||
		sess.UserEmail != caller.Email {
		return StateUnauthenticated
	}

	return StateAuthenticated
}

// An empty authorized set allows everyone.
func contains(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
