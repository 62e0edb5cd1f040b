package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

var responseCols = []string{"id", "form_id", "event_id", "user_id", "participant_name", "participant_email", "response_values",
	"checked_in", "checked_in_at", "checked_in_by", "created_at"}

func TestResponseRepository_Create(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		userID string
		wantID any
	}{
		{name: "authenticated registrant", userID: "user-1", wantID: "user-1"},
		{name: "anonymous registrant stores NULL user", userID: "", wantID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(`INSERT INTO form_responses \(form_id, event_id, user_id, participant_name, participant_email, response_values, created_at\)`).
				WithArgs("form-1", "ev-1", tt.wantID, "Ana", "ana@example.com", `{"Name":"Ana"}`, at).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("resp-1"))

			resp := domain.NewResponse("form-1", "ev-1", tt.userID, "Ana", "ana@example.com", map[string]any{"Name": "Ana"}, at)
			require.NoError(t, NewResponseRepository(db).Create(context.Background(), resp))
			assert.Equal(t, "resp-1", resp.ID)
			assert.False(t, resp.CheckedIn)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestResponseRepository_GetForCheckIn(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	checked := at.Add(time.Hour)

	t.Run("found with check-in fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM form_responses\s+WHERE id = \$1 AND form_id = \$2 AND event_id = \$3`).
			WithArgs("resp-1", "form-1", "ev-1").
			WillReturnRows(sqlmock.NewRows(responseCols).
				AddRow("resp-1", "form-1", "ev-1", nil, "Ana", "ana@example.com", []byte(`{"Size":"M"}`), true, checked, "op-1", at))

		got, err := NewResponseRepository(db).GetForCheckIn(context.Background(), "form-1", "ev-1", "resp-1")
		require.NoError(t, err)
		assert.Equal(t, "", got.UserID)
		assert.Equal(t, map[string]any{"Size": "M"}, got.Values)
		assert.True(t, got.CheckedIn)
		require.NotNil(t, got.CheckedInAt)
		assert.True(t, checked.Equal(*got.CheckedInAt))
		assert.Equal(t, "op-1", got.CheckedInBy)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM form_responses`).WillReturnError(sql.ErrNoRows)

		_, err = NewResponseRepository(db).GetForCheckIn(context.Background(), "form-1", "ev-1", "resp-x")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestResponseRepository_ListByFormID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM form_responses WHERE form_id = \$1`).
		WithArgs("form-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`ORDER BY created_at DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("form-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(responseCols).
			AddRow("resp-2", "form-1", "ev-1", "user-2", "Bo", "bo@example.com", []byte(`{}`), false, nil, nil, at).
			AddRow("resp-1", "form-1", "ev-1", nil, "Ana", "ana@example.com", []byte(`{}`), false, nil, nil, at))

	got, total, err := NewResponseRepository(db).ListByFormID(context.Background(), "form-1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "user-2", got[0].UserID)
	assert.Nil(t, got[1].CheckedInAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
