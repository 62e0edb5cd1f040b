package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventticketing/internal/domain"
)

type responseRepository struct {
	DB *sql.DB
}

func NewResponseRepository(db *sql.DB) domain.ResponseRepository {
	return &responseRepository{
		DB: db,
	}
}

const responseColumns = `id, form_id, event_id, user_id, participant_name, participant_email, response_values,
		checked_in, checked_in_at, checked_in_by, created_at`

func (r *responseRepository) Create(ctx context.Context, resp *domain.Response) error {
	values, err := json.Marshal(resp.Values)
	if err != nil {
		return fmt.Errorf("encode response values: %w", err)
	}
	var userID sql.NullString
	if resp.UserID != "" {
		userID = sql.NullString{String: resp.UserID, Valid: true}
	}
	query := `
		INSERT INTO form_responses (form_id, event_id, user_id, participant_name, participant_email, response_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		resp.FormID, resp.EventID, userID, resp.ParticipantName, resp.ParticipantEmail, string(values), resp.CreatedAt,
	).Scan(&resp.ID)
}

func (r *responseRepository) GetForCheckIn(ctx context.Context, formID, eventID, responseID string) (*domain.Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM form_responses
		WHERE id = $1 AND form_id = $2 AND event_id = $3
	`
	resp, err := scanResponse(r.DB.QueryRowContext(ctx, query, responseID, formID, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return resp, nil
}

func (r *responseRepository) ListByFormID(ctx context.Context, formID string, params domain.PaginationParams) ([]*domain.Response, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM form_responses WHERE form_id = $1`, formID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + responseColumns + `
		FROM form_responses
		WHERE form_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, formID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	resps, err := scanResponses(rows)
	if err != nil {
		return nil, 0, err
	}
	return resps, total, nil
}

func (r *responseRepository) ListAllByFormID(ctx context.Context, formID string) ([]*domain.Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM form_responses
		WHERE form_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResponses(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (*domain.Response, error) {
	resp := &domain.Response{}
	var (
		userID      sql.NullString
		values      []byte
		checkedInAt sql.NullTime
		checkedInBy sql.NullString
	)
	err := row.Scan(&resp.ID, &resp.FormID, &resp.EventID, &userID, &resp.ParticipantName, &resp.ParticipantEmail, &values,
		&resp.CheckedIn, &checkedInAt, &checkedInBy, &resp.CreatedAt)
	if err != nil {
		return nil, err
	}
	resp.UserID = userID.String
	resp.CheckedInBy = checkedInBy.String
	if checkedInAt.Valid {
		resp.CheckedInAt = &checkedInAt.Time
	}
	if len(values) > 0 {
		if err := json.Unmarshal(values, &resp.Values); err != nil {
			return nil, fmt.Errorf("decode response values: %w", err)
		}
	}
	if resp.Values == nil {
		resp.Values = map[string]any{}
	}
	return resp, nil
}

func scanResponses(rows *sql.Rows) ([]*domain.Response, error) {
	resps := make([]*domain.Response, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		resps = append(resps, resp)
	}
	return resps, rows.Err()
}
