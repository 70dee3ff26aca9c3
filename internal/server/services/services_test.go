package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/logging"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/dmitrijs2005/medialog/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntryService() *EntryService {
	s := NewEntryService(nil, repomanager.NewInMemoryRepositoryManager(), logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestEntryService_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newEntryService()

	_, err := s.Create(ctx, models.Entry{Title: "Dune"})
	require.ErrorIs(t, err, common.ErrorValidation)

	created, err := s.Create(ctx, models.Entry{ID: 55, Title: "Dune", MediaType: "book", Date: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, models.ID(1), created.ID, "client supplied ids are ignored")
	assert.NotNil(t, created.CreatedAt)

	require.NoError(t, s.Update(ctx, created.ID, models.Entry{Title: "Dune Messiah", MediaType: "book", Date: "2024-03-02"}))
	assert.ErrorIs(t, s.Update(ctx, 99, models.Entry{Title: "x", MediaType: "y", Date: "2024-01-01"}), common.ErrorNotFound)
	assert.ErrorIs(t, s.Update(ctx, created.ID, models.Entry{Title: "x"}), common.ErrorValidation)

	list, err := s.List(ctx, models.Filters{Search: "messiah"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ThisMonth)

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.DateCount{{Date: "2024-03-02", Count: 1}}, dates)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, created.ID), common.ErrorNotFound)
}

func TestEntryService_ImportSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newEntryService()

	n, err := s.Import(ctx, []models.Entry{
		{Title: "Dune", MediaType: "book", Date: "2024-03-01"},
		{Title: "", MediaType: "book", Date: "2024-03-01"},
		{Title: "Heat", MediaType: "movie", Date: "not-a-date"},
		{Title: "Emma", MediaType: "book", Date: "2024-02-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	exported, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, exported, 2)

	settings, err := NewSettingsService(nil, s.repomanager).Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings.LastSync)

	deleted, err := s.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestEntryService_ImportRunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewEntryService(db, repomanager.NewPostgresRepositoryManager(), logging.Discard())
	ts := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO entries`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), ts, ts))
	mock.ExpectQuery(`INSERT INTO entries`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = s.Import(context.Background(), []models.Entry{
		{Title: "a", MediaType: "b", Date: "2024-01-01"},
		{Title: "c", MediaType: "d", Date: "2024-01-02"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	s, err := NewAuthService(nil, repomanager.NewInMemoryRepositoryManager(), "play123", "secret", 24*time.Hour, logging.Discard())
	require.NoError(t, err)
	return s
}

func TestAuthService_LoginVerifyLogout(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(t)

	_, err := s.Login(ctx, "")
	assert.ErrorIs(t, err, ErrPasswordRequired)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Login(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	sess, err := s.Login(ctx, "play123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), sess.ExpiresAt, time.Minute)

	id, err := s.Verify(ctx, sess.Token)
	require.NoError(t, err)

	_, err = s.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, s.Logout(ctx, id))
	_, err = s.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized, "logout revokes the token")
}

func TestAuthService_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	s := newAuthService(t)

	sess, err := s.Login(ctx, "play123")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = s.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsService(nil, repomanager.NewInMemoryRepositoryManager())

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.AutoSync)

	require.NoError(t, s.SetAutoSync(ctx, false))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.AutoSync)
}
