package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*InteractionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewInteractionRepository(db), mock, func() { _ = db.Close() }
}

func TestSaveInteractionInsertsIdempotently(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	occurred := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO interaction_events .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs("e1", "anime", "search_recommend", "naruto", "recommended", 2, []byte(`["Naruto Shippuden","Boruto"]`), occurred).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveInteraction(context.Background(), &domain.InteractionEvent{
		ID:          "e1",
		Domain:      domain.DomainAnime,
		Endpoint:    "search_recommend",
		Query:       "naruto",
		Outcome:     domain.OutcomeRecommended,
		ResultCount: 2,
		TopTitles:   []string{"Naruto Shippuden", "Boruto"},
		OccurredAt:  occurred,
	})
	if err != nil {
		t.Fatalf("SaveInteraction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveInteractionStoresEmptyTitleList(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO interaction_events").
		WithArgs("e2", "game", "popular", "", "popular", 0, []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveInteraction(context.Background(), &domain.InteractionEvent{
		ID:         "e2",
		Domain:     domain.DomainGame,
		Endpoint:   "popular",
		Outcome:    domain.OutcomePopular,
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("SaveInteraction() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveInteractionRequiresID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	err := repo.SaveInteraction(context.Background(), &domain.InteractionEvent{Domain: domain.DomainAnime})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveInteractionWrapsDriverError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO interaction_events").WillReturnError(errors.New("connection reset"))

	err := repo.SaveInteraction(context.Background(), &domain.InteractionEvent{ID: "e3", Domain: domain.DomainAnime})
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS interaction_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaRollsBackOnDDLFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	if err := repo.EnsureSchema(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
