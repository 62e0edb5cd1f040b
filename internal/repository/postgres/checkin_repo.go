package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventticketing/internal/domain"
)

// maxAdmitAttempts bounds retries when a conflicting admission rolled back
// between our insert and our re-read.
const maxAdmitAttempts = 3

var errAdmitConflict = errors.New("check-in conflict not resolved")

type checkInRepository struct {
	DB *sql.DB
}

// NewCheckInRepository returns a domain.CheckInRepository whose Admit relies on the
// form_check_ins_key unique constraint for at-most-once admission.
func NewCheckInRepository(db *sql.DB) domain.CheckInRepository {
	return &checkInRepository{DB: db}
}

const checkInColumns = `id, form_id, event_id, participant_id, participant_name, participant_email,
		check_in_code, checked_in_by, checked_in_at, qr_data`

func (r *checkInRepository) Admit(ctx context.Context, rec *domain.CheckInRecord) (*domain.CheckInRecord, bool, error) {
	for attempt := 0; attempt < maxAdmitAttempts; attempt++ {
		stored, created, err := r.admitOnce(ctx, rec)
		if errors.Is(err, errAdmitConflict) {
			continue
		}
		return stored, created, err
	}
	return nil, false, fmt.Errorf("admit %s: %w", rec.Key(), errAdmitConflict)
}

// admitOnce inserts the record unless the key is taken. On conflict the insert
// waits for the competing transaction and then does nothing; the committed row
// is read back and reported as existing.
func (r *checkInRepository) admitOnce(ctx context.Context, rec *domain.CheckInRecord) (*domain.CheckInRecord, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin check-in tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO form_check_ins (form_id, event_id, participant_id, participant_name, participant_email,
			check_in_code, checked_in_by, checked_in_at, qr_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (form_id, event_id, participant_id) DO NOTHING
		RETURNING id, checked_in_at
	`
	var (
		id string
		at time.Time
	)
	err = tx.QueryRowContext(ctx, insert,
		rec.FormID, rec.EventID, rec.ParticipantID, rec.ParticipantName, rec.ParticipantEmail,
		rec.CheckInCode, rec.CheckedInBy, rec.CheckedInAt, nullableJSON(rec.QRData),
	).Scan(&id, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			_ = tx.Rollback()
			existing, getErr := r.Get(ctx, rec.Key())
			if errors.Is(getErr, domain.ErrNotFound) {
				return nil, false, errAdmitConflict
			}
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert check-in: %w", err)
	}

	update := `
		UPDATE form_responses
		SET checked_in = true, checked_in_at = $1, checked_in_by = $2
		WHERE id = $3 AND form_id = $4 AND event_id = $5
	`
	result, err := tx.ExecContext(ctx, update, at, rec.CheckedInBy, rec.ParticipantID, rec.FormID, rec.EventID)
	if err != nil {
		return nil, false, fmt.Errorf("mark response checked in: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, false, domain.ErrResponseNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit check-in: %w", err)
	}

	// checked_in_at is returned as stored so the first scan reports the same
	// time later reads will.
	stored := *rec
	stored.ID = id
	stored.CheckedInAt = at.UTC()
	return &stored, true, nil
}

func (r *checkInRepository) Get(ctx context.Context, key domain.CheckInKey) (*domain.CheckInRecord, error) {
	query := `
		SELECT ` + checkInColumns + `
		FROM form_check_ins
		WHERE form_id = $1 AND event_id = $2 AND participant_id = $3
	`
	rec, err := scanCheckIn(r.DB.QueryRowContext(ctx, query, key.FormID, key.EventID, key.ParticipantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *checkInRepository) ListByFormID(ctx context.Context, formID string, params domain.PaginationParams) ([]*domain.CheckInRecord, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM form_check_ins WHERE form_id = $1`, formID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + checkInColumns + `
		FROM form_check_ins
		WHERE form_id = $1
		ORDER BY checked_in_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, formID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	recs := make([]*domain.CheckInRecord, 0)
	for rows.Next() {
		rec, err := scanCheckIn(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func scanCheckIn(row rowScanner) (*domain.CheckInRecord, error) {
	rec := &domain.CheckInRecord{}
	var qr []byte
	err := row.Scan(&rec.ID, &rec.FormID, &rec.EventID, &rec.ParticipantID, &rec.ParticipantName, &rec.ParticipantEmail,
		&rec.CheckInCode, &rec.CheckedInBy, &rec.CheckedInAt, &qr)
	if err != nil {
		return nil, err
	}
	if len(qr) > 0 {
		rec.QRData = qr
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
