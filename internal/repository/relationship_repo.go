package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fitquest/internal/database"
	"fitquest/internal/models"
)

// RelationshipRepository handles database operations for parent-child relationships
type RelationshipRepository struct {
	db database.DBTX
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db database.DBTX) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *RelationshipRepository) WithTx(tx *database.Tx) *RelationshipRepository {
	return &RelationshipRepository{db: tx}
}

// Create inserts a parent-child relationship edge. The (parent_id, child_id)
// pair carries a unique constraint, so concurrent duplicate creation fails at
// the database even if both requests pass the service-level check.
func (r *RelationshipRepository) Create(parentID, childID int64, consent bool, consentAt time.Time) (*models.Relationship, error) {
	query := `
		INSERT INTO relationships (parent_id, child_id, consent_given, consent_at, active)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, parentID, childID, consent, consentAt, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a relationship by ID
func (r *RelationshipRepository) GetByID(relationshipID int64) (*models.Relationship, error) {
	query := `
		SELECT id, parent_id, child_id, consent_given, consent_at, active, created_at, updated_at
		FROM relationships
		WHERE id = ?
	`
	return r.scanRelationship(r.db.QueryRow(query, relationshipID))
}

// HasActiveRelationship reports whether an active parent->child edge exists.
// This is the core predicate consulted by the authorization evaluator.
func (r *RelationshipRepository) HasActiveRelationship(parentID, childID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM relationships WHERE parent_id = ? AND child_id = ? AND active = ?"
	if err := r.db.QueryRow(query, parentID, childID, true).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check relationship: %w", err)
	}
	return count > 0, nil
}

// HasActiveConsentedRelationship reports whether an active, consent-bearing
// parent->child edge exists. Writes to child-owned rows require consent.
func (r *RelationshipRepository) HasActiveConsentedRelationship(parentID, childID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM relationships WHERE parent_id = ? AND child_id = ? AND active = ? AND consent_given = ?"
	if err := r.db.QueryRow(query, parentID, childID, true, true).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check relationship consent: %w", err)
	}
	return count > 0, nil
}

// Exists reports whether any edge (active or not) exists for the pair
func (r *RelationshipRepository) Exists(parentID, childID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM relationships WHERE parent_id = ? AND child_id = ?"
	if err := r.db.QueryRow(query, parentID, childID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check relationship: %w", err)
	}
	return count > 0, nil
}

// ChildHasActiveRelationship reports whether the child has at least one
// active parent edge. Session data is only writable for a child that does.
func (r *RelationshipRepository) ChildHasActiveRelationship(childID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM relationships WHERE child_id = ? AND active = ?"
	if err := r.db.QueryRow(query, childID, true).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check child relationships: %w", err)
	}
	return count > 0, nil
}

// ListChildren retrieves all child profiles a parent has an active relationship to
func (r *RelationshipRepository) ListChildren(parentID int64) ([]models.Profile, error) {
	query := `
		SELECT ` + joinProfileColumns("p") + `
		FROM profiles p
		JOIN relationships rel ON rel.child_id = p.id
		WHERE rel.parent_id = ? AND rel.active = ?
		ORDER BY p.created_at ASC
	`
	rows, err := r.db.Query(query, parentID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Profile
	for rows.Next() {
		profile, err := scanProfileFromRows(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, *profile)
	}
	return children, rows.Err()
}

// Deactivate marks a relationship inactive. The edge is never deleted so the
// consent history survives.
func (r *RelationshipRepository) Deactivate(relationshipID int64) error {
	query := "UPDATE relationships SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, false, relationshipID); err != nil {
		return fmt.Errorf("failed to deactivate relationship: %w", err)
	}
	return nil
}

func (r *RelationshipRepository) scanRelationship(row *sql.Row) (*models.Relationship, error) {
	rel := &models.Relationship{}
	var consentAt sql.NullTime

	err := row.Scan(
		&rel.ID,
		&rel.ParentID,
		&rel.ChildID,
		&rel.ConsentGiven,
		&consentAt,
		&rel.Active,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan relationship: %w", err)
	}

	if consentAt.Valid {
		rel.ConsentAt = &consentAt.Time
	}
	return rel, nil
}

// joinProfileColumns prefixes each profile column with a table alias for joins
func joinProfileColumns(alias string) string {
	return alias + `.id, ` + alias + `.display_name, ` + alias + `.birth_date, ` + alias + `.is_child, ` +
		alias + `.email, ` + alias + `.password_hash, ` + alias + `.oauth_provider, ` + alias + `.oauth_subject, ` +
		alias + `.consent_given, ` + alias + `.consent_at, ` + alias + `.share_progress, ` +
		alias + `.show_on_leaderboard, ` + alias + `.created_at, ` + alias + `.updated_at`
}

// scanProfileFromRows scans one profile from a multi-row result set
func scanProfileFromRows(rows *sql.Rows) (*models.Profile, error) {
	profile := &models.Profile{}
	var email, passwordHash, oauthProvider, oauthSubject sql.NullString
	var consentAt sql.NullTime

	err := rows.Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.BirthDate,
		&profile.IsChild,
		&email,
		&passwordHash,
		&oauthProvider,
		&oauthSubject,
		&profile.ConsentGiven,
		&consentAt,
		&profile.ShareProgress,
		&profile.ShowOnLeaderboard,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	profile.Email = email.String
	profile.PasswordHash = passwordHash.String
	profile.OAuthProvider = oauthProvider.String
	profile.OAuthSubject = oauthSubject.String
	if consentAt.Valid {
		profile.ConsentAt = &consentAt.Time
	}
	return profile, nil
}
