package mysql_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"hotel_connect/internal/domain"
	mysqlrepo "hotel_connect/internal/storage/mysql"
)

func newMock(t *testing.T) (*mysqlrepo.Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mysqlrepo.New(db), mock
}

var ts = time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)

func TestInsert_IsNoOpOnDuplicate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE")).
		WithArgs(int64(7), "pms", "mock", "{}", ts.Truncate(time.Microsecond)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Insert(context.Background(), domain.ProviderConfig{HotelID: 7, Domain: domain.DomainPMS, Provider: "mock", UpdatedAt: ts})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCompareAndSwap(t *testing.T) {
	repo, mock := newMock(t)
	prev := ts.Add(-time.Minute).Truncate(time.Microsecond)
	next := domain.ProviderConfig{HotelID: 7, Domain: domain.DomainSpa, Provider: "mindbody", Config: map[string]any{"siteId": "-99"}, UpdatedAt: ts}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE provider_configs")).
		WithArgs("mindbody", `{"siteId":"-99"}`, ts.Truncate(time.Microsecond), int64(7), "spa", prev).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE provider_configs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.CompareAndSwap(context.Background(), next, prev)
	if err != nil || !ok {
		t.Fatalf("first swap: ok=%v err=%v", ok, err)
	}
	ok, err = repo.CompareAndSwap(context.Background(), next, prev)
	if err != nil || ok {
		t.Fatalf("stale swap must report false: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGet(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM provider_configs")).
		WithArgs(int64(7), "digitalKey").
		WillReturnRows(sqlmock.NewRows([]string{"provider", "config", "updated_at"}).
			AddRow("alliants", []byte(`{"apiKey":"k","propertyId":12}`), ts))

	got, err := repo.Get(context.Background(), 7, domain.DomainDigitalKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Provider != "alliants" || got.Config["apiKey"] != "k" || !got.UpdatedAt.Equal(ts) {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.Config["propertyId"] != float64(12) {
		t.Fatalf("numbers decode as float64, got %T", got.Config["propertyId"])
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM provider_configs")).
		WillReturnRows(sqlmock.NewRows([]string{"provider", "config", "updated_at"}))

	_, err := repo.Get(context.Background(), 1, domain.DomainPMS)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListHotels(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT hotel_id")).
		WithArgs("pms").
		WillReturnRows(sqlmock.NewRows([]string{"hotel_id"}).AddRow(int64(3)).AddRow(int64(9)))

	ids, err := repo.ListHotels(context.Background(), domain.DomainPMS)
	if err != nil {
		t.Fatalf("ListHotels: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 9 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
