package service

import (
	"errors"

	"github.com/KrishnaRLolage/GoldShopManager/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

// Policy decides whether a principal may invoke an action. It is the only
// authorization check between credential resolution and dispatch.
type Policy func(principal domain.Principal, action string) error

// AllowAuthenticated lets any resolved principal invoke any action.
func AllowAuthenticated(domain.Principal, string) error {
	return nil
}

// RequireRole restricts the listed actions to the given role and leaves the
// rest open to any principal.
func RequireRole(role domain.UserRole, actions ...string) Policy {
	restricted := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		restricted[a] = struct{}{}
	}

	return func(p domain.Principal, action string) error {
		if _, ok := restricted[action]; ok && p.Role != role {
			return ErrForbidden
		}
		return nil
	}
}
