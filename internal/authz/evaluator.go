// Package authz implements the family-scoped authorization predicate.
//
// Evaluation is strictly two-phase. Phase 1 happens before this package is
// ever consulted: the request middleware resolves the caller's external
// login to a profile ID through a single privileged repository lookup
// (repository.ProfileRepository.GetProfileByLogin / GetSession). Phase 2 is
// this evaluator, which only ever compares already-resolved profile IDs and
// queries the relationship graph. The evaluator never reads the profiles
// table and never re-enters itself, so the "find my own profile in the table
// I am protecting" recursion cannot occur here.
package authz

import (
	"fitquest/internal/database"
	"fitquest/internal/repository"
)

// Operation is the kind of access being requested
type Operation int

const (
	Read Operation = iota
	Write
)

// Evaluator decides ALLOW/DENY for access to profile-owned rows
type Evaluator struct {
	relationships *repository.RelationshipRepository
}

// NewEvaluator creates a new evaluator backed by the relationship graph
func NewEvaluator(relationships *repository.RelationshipRepository) *Evaluator {
	return &Evaluator{relationships: relationships}
}

// WithTx returns an evaluator whose relationship reads run inside the given
// transaction, so authorization sees the same snapshot as the operation it
// gates.
func (e *Evaluator) WithTx(tx *database.Tx) *Evaluator {
	return &Evaluator{relationships: e.relationships.WithTx(tx)}
}

// Allowed evaluates the predicate for a caller acting on rows owned by
// ownerProfileID. Rules, in order:
//
//  1. The caller owns the row: allow. Children never appear as callers
//     because they have no login identity; every child-owned write arrives
//     through a parent-authenticated path.
//  2. An active parent->child relationship exists from caller to owner:
//     allow. Writes additionally require the edge to carry consent.
//  3. Deny.
//
// Callers translate a deny into the same response as a missing row so
// denial never leaks existence.
func (e *Evaluator) Allowed(callerProfileID, ownerProfileID int64, op Operation) (bool, error) {
	if callerProfileID == ownerProfileID {
		return true, nil
	}

	if op == Write {
		return e.relationships.HasActiveConsentedRelationship(callerProfileID, ownerProfileID)
	}
	return e.relationships.HasActiveRelationship(callerProfileID, ownerProfileID)
}
