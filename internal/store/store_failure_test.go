package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"pitlane/internal/store"
)

func newMockStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return store.New(db), mock
}

func TestSaveEventLookupFailure(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id FROM events").
		WithArgs("Belgian Grand Prix", 13).
		WillReturnError(errors.New("disk I/O error"))

	_, err := st.SaveEvent(context.Background(), store.Event{Name: "Belgian Grand Prix", Round: 13})
	if err == nil || !strings.Contains(err.Error(), "lookup event") {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveEventInsertFailure(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id FROM events").
		WithArgs("Belgian Grand Prix", 13).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO events").
		WillReturnError(errors.New("constraint failed"))

	_, err := st.SaveEvent(context.Background(), store.Event{Name: "Belgian Grand Prix", Round: 13})
	if err == nil || !strings.Contains(err.Error(), "insert event") {
		t.Fatalf("expected insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTxRollsBackOnStatementFailure(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM events").WithArgs(int64(7)).WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := st.InTx(context.Background(), func(tx *store.Store) error {
		return tx.DeleteEvent(context.Background(), 7)
	})
	if err == nil || !strings.Contains(err.Error(), "delete event") {
		t.Fatalf("expected delete error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInTxReportsCommitFailure(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM processed_posts").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit().WillReturnError(errors.New("commit refused"))

	err := st.InTx(context.Background(), func(tx *store.Store) error {
		_, err := tx.ResetLedgerEntry(context.Background(), "abc")
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "commit tx") {
		t.Fatalf("expected commit error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIsEventCompleteSurfacesQueryError(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("FROM processed_posts").WillReturnError(errors.New("no such table"))

	if _, err := st.IsEventComplete(context.Background(), "Qatar Grand Prix", 23, 2025, []string{"4K"}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
