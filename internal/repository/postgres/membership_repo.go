package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventticketing/internal/domain"
)

type membershipRepository struct {
	DB *sql.DB
}

// NewMembershipRepository returns a domain.MembershipRepository backed by the
// community_members table, keyed by (community_id, user_id).
func NewMembershipRepository(db *sql.DB) domain.MembershipRepository {
	return &membershipRepository{DB: db}
}

func (r *membershipRepository) GetRole(ctx context.Context, communityID, userID string) (domain.Role, error) {
	query := `
		SELECT role
		FROM community_members
		WHERE community_id = $1 AND user_id = $2
	`
	var code string
	err := r.DB.QueryRowContext(ctx, query, communityID, userID).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, err
	}
	return domain.ParseRole(code), nil
}
