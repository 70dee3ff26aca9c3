package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	s := Decode(nil)
	assert.True(t, s.AutoSync)
	assert.Nil(t, s.LastSync)

	s = Decode(map[string]string{KeyAutoSync: "false", KeyLastSync: "2024-03-01T10:00:00Z"})
	assert.False(t, s.AutoSync)
	require.NotNil(t, s.LastSync)
	assert.True(t, s.LastSync.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	s = Decode(map[string]string{KeyAutoSync: "maybe", KeyLastSync: "yesterday"})
	assert.True(t, s.AutoSync)
	assert.Nil(t, s.LastSync)
}

func TestPostgresRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`^SELECT key, value FROM settings$`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("auto_sync", "false"))
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+settings.*ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("auto_sync", "true").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+settings`).
		WithArgs("auto_sync", "false").
		WillReturnError(errors.New("db down"))

	kv, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"auto_sync": "false"}, kv)

	require.NoError(t, repo.Set(ctx, KeyAutoSync, "true"))
	err = repo.Set(ctx, KeyAutoSync, "false")
	require.ErrorContains(t, err, "db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	kv, err := r.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "true", kv[KeyAutoSync])

	require.NoError(t, r.Set(ctx, KeyAutoSync, "false"))
	kv["mutated"] = "x"

	kv, err = r.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyAutoSync: "false"}, kv)
}
