package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventticketing/internal/domain"
)

type formRepository struct {
	DB *sql.DB
}

func NewFormRepository(db *sql.DB) domain.FormRepository {
	return &formRepository{
		DB: db,
	}
}

func (r *formRepository) Create(ctx context.Context, f *domain.Form) error {
	fields, ticket, err := marshalForm(f)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO forms (event_id, title, description, fields, ticket, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, f.EventID, f.Title, f.Description, fields, ticket, f.CreatedAt, f.UpdatedAt).
		Scan(&f.ID)
}

func (r *formRepository) GetByID(ctx context.Context, id string) (*domain.Form, error) {
	query := `
		SELECT id, event_id, title, description, fields, ticket, created_at, updated_at
		FROM forms
		WHERE id = $1
	`
	f := &domain.Form{}
	var fields, ticket []byte
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&f.ID, &f.EventID, &f.Title, &f.Description, &fields, &ticket, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(fields, &f.Fields); err != nil {
		return nil, fmt.Errorf("decode form fields: %w", err)
	}
	if len(ticket) > 0 {
		if err := json.Unmarshal(ticket, &f.Ticket); err != nil {
			return nil, fmt.Errorf("decode form ticket settings: %w", err)
		}
	}
	if f.Fields == nil {
		f.Fields = []domain.FormField{}
	}
	return f, nil
}

func (r *formRepository) Update(ctx context.Context, f *domain.Form) error {
	fields, ticket, err := marshalForm(f)
	if err != nil {
		return err
	}
	query := `
		UPDATE forms
		SET title = $1, description = $2, fields = $3, ticket = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.DB.ExecContext(ctx, query, f.Title, f.Description, fields, ticket, f.UpdatedAt, f.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func marshalForm(f *domain.Form) (fields, ticket string, err error) {
	fieldList := f.Fields
	if fieldList == nil {
		fieldList = []domain.FormField{}
	}
	fb, err := json.Marshal(fieldList)
	if err != nil {
		return "", "", fmt.Errorf("encode form fields: %w", err)
	}
	tb, err := json.Marshal(f.Ticket)
	if err != nil {
		return "", "", fmt.Errorf("encode form ticket settings: %w", err)
	}
	return string(fb), string(tb), nil
}
