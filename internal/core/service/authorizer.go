package service

import "github.com/tokenward/tokenward-go/internal/core/domain"

// Ability checks are pure functions over a token's current ability
// set: no I/O, no mutation. Ownership checks ("does the token's owner
// also own the target resource") are the caller's responsibility.

// Can reports whether the token carries the ability, either exactly or
// through the "*" wildcard. Matching is case-sensitive; no prefix or
// hierarchy matching is performed.
func Can(t *domain.Token, ability string) bool {
	for _, a := range t.Abilities {
		if a == domain.WildcardAbility || a == ability {
			return true
		}
	}
	return false
}

// Cannot is the strict boolean negation of Can.
func Cannot(t *domain.Token, ability string) bool {
	return !Can(t, ability)
}

// CanAll reports whether the token carries every listed ability.
// An empty list is vacuously satisfied.
func CanAll(t *domain.Token, abilities []string) bool {
	for _, ability := range abilities {
		if !Can(t, ability) {
			return false
		}
	}
	return true
}

// CanAny reports whether the token carries at least one listed
// ability. An empty list is never satisfied.
func CanAny(t *domain.Token, abilities []string) bool {
	for _, ability := range abilities {
		if Can(t, ability) {
			return true
		}
	}
	return false
}
