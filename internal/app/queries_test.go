package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hotel_connect/internal/app"
	"hotel_connect/internal/domain"
)

// ---- fakes ----

type rowKey struct {
	hotel int64
	d     domain.Domain
}

type fakeRepo struct {
	mu      sync.Mutex
	rows    map[rowKey]domain.ProviderConfig
	gets    int
	inserts int
	// beforeCAS runs inside CompareAndSwap before the version check, with
	// the lock held. Tests use it to simulate a concurrent writer.
	beforeCAS func(rows map[rowKey]domain.ProviderConfig)
	failCAS   bool
	// afterGet runs once, after a Get has read its row and released the lock.
	afterGet func()
}

func newFakeRepo() *fakeRepo { return &fakeRepo{rows: map[rowKey]domain.ProviderConfig{}} }

func (f *fakeRepo) Insert(_ context.Context, c domain.ProviderConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := rowKey{c.HotelID, c.Domain}
	if _, ok := f.rows[k]; ok {
		return nil
	}
	f.inserts++
	f.rows[k] = clone(c)
	return nil
}

func (f *fakeRepo) CompareAndSwap(_ context.Context, c domain.ProviderConfig, prev time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beforeCAS != nil {
		hook := f.beforeCAS
		f.beforeCAS = nil
		hook(f.rows)
	}
	if f.failCAS {
		return false, nil
	}
	k := rowKey{c.HotelID, c.Domain}
	cur, ok := f.rows[k]
	if !ok || !cur.UpdatedAt.Equal(prev) {
		return false, nil
	}
	f.rows[k] = clone(c)
	return true, nil
}

func (f *fakeRepo) Get(_ context.Context, hotelID int64, d domain.Domain) (domain.ProviderConfig, error) {
	f.mu.Lock()
	f.gets++
	c, ok := f.rows[rowKey{hotelID, d}]
	hook := f.afterGet
	f.afterGet = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	return clone(c), nil
}

func (f *fakeRepo) ListHotels(_ context.Context, d domain.Domain) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for k := range f.rows {
		if k.d == d {
			ids = append(ids, k.hotel)
		}
	}
	return ids, nil
}

func clone(c domain.ProviderConfig) domain.ProviderConfig {
	m := make(map[string]any, len(c.Config))
	for k, v := range c.Config {
		m[k] = v
	}
	c.Config = m
	return c
}

type fakeCache struct {
	mu      sync.Mutex
	store   map[string]domain.ProviderConfig
	dels    int
	failSet bool
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.ProviderConfig) = v
	return true, nil
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("cache down")
	}
	if c.store == nil {
		c.store = map[string]domain.ProviderConfig{}
	}
	c.store[key] = v.(domain.ProviderConfig)
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return t0 }

// ---- tests ----

func TestGet_InsertsDefaultThenServesFromCache(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	s := app.NewConfigService(repo, cache, 10*time.Minute, app.WithConfigClock(fixedClock))
	ctx := context.Background()

	pc, err := s.Get(ctx, 7, domain.DomainPMS)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if pc.Provider != "mock" || len(pc.Config) != 0 || pc.HotelID != 7 {
		t.Fatalf("unexpected default row: %+v", pc)
	}
	if repo.inserts != 1 {
		t.Fatalf("expected one insert, got %d", repo.inserts)
	}

	gets := repo.gets
	pc2, err := s.Get(ctx, 7, domain.DomainPMS)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if repo.gets != gets {
		t.Fatalf("second Get should be served from cache")
	}
	if !pc2.UpdatedAt.Equal(pc.UpdatedAt) {
		t.Fatalf("cached row differs: %+v vs %+v", pc2, pc)
	}

	dk, err := s.Get(ctx, 7, domain.DomainDigitalKey)
	if err != nil || dk.Provider != "none" {
		t.Fatalf("digital key default: %+v %v", dk, err)
	}
}

func TestGet_ReadOverlappingUpdateDoesNotCacheOldRow(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	s := app.NewConfigService(repo, cache, time.Hour, app.WithConfigClock(fixedClock))
	ctx := context.Background()
	if _, err := s.Update(ctx, 9, domain.DomainPMS, domain.ConfigUpdate{Provider: ptr("opera")}); err != nil {
		t.Fatal(err)
	}

	// The read returns opera, then stalls until mews has been committed.
	read, release := make(chan struct{}), make(chan struct{})
	repo.mu.Lock()
	repo.afterGet = func() { close(read); <-release }
	repo.mu.Unlock()

	done := make(chan domain.ProviderConfig)
	go func() {
		pc, err := s.Get(ctx, 9, domain.DomainPMS)
		if err != nil {
			t.Errorf("get: %v", err)
		}
		done <- pc
	}()
	<-read
	if _, err := s.Update(ctx, 9, domain.DomainPMS, domain.ConfigUpdate{Provider: ptr("mews")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(release)
	if old := <-done; old.Provider != "opera" {
		t.Fatalf("stalled read = %s, want opera", old.Provider)
	}

	pc, err := s.Get(ctx, 9, domain.DomainPMS)
	if err != nil || pc.Provider != "mews" {
		t.Fatalf("after update Get = %+v %v, want mews", pc, err)
	}
	if pc, _ := s.Find(ctx, 9, domain.DomainPMS); pc.Provider != "mews" {
		t.Fatalf("Find = %s, want mews", pc.Provider)
	}
}

func TestGet_CacheFailureFallsBackToRepository(t *testing.T) {
	repo := newFakeRepo()
	s := app.NewConfigService(repo, &fakeCache{failSet: true}, time.Minute)
	for i := 0; i < 2; i++ {
		pc, err := s.Get(context.Background(), 4, domain.DomainSpa)
		if err != nil || pc.Provider != "none" {
			t.Fatalf("get %d: %+v %v", i, pc, err)
		}
	}
	if repo.gets < 2 {
		t.Fatalf("uncached reads must reach the repository, got %d gets", repo.gets)
	}
}

func TestGet_UnknownDomain(t *testing.T) {
	s := app.NewConfigService(newFakeRepo(), nil, 0)
	if _, err := s.Get(context.Background(), 1, domain.DomainPayment); !errors.Is(err, domain.ErrUnknownDomain) {
		t.Fatalf("want ErrUnknownDomain, got %v", err)
	}
}

func TestFind_DoesNotInsert(t *testing.T) {
	repo := newFakeRepo()
	s := app.NewConfigService(repo, nil, 0)
	if _, err := s.Find(context.Background(), 3, domain.DomainSpa); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if repo.inserts != 0 {
		t.Fatalf("Find must not insert")
	}
}

func TestUpdate_MergeRules(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	s := app.NewConfigService(repo, cache, time.Minute, app.WithConfigClock(fixedClock))
	ctx := context.Background()

	_, err := s.Update(ctx, 1, domain.DomainPMS, domain.ConfigUpdate{
		Provider: ptr("opera"),
		Config:   map[string]any{"baseUrl": "https://opera.test", "resortId": "R1", "username": "u", "password": "p"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := s.Get(ctx, 1, domain.DomainPMS); err != nil {
		t.Fatalf("get: %v", err)
	}

	got, err := s.Update(ctx, 1, domain.DomainPMS, domain.ConfigUpdate{
		ConfigPatch: map[string]any{"password": nil, "username": "", "resortId": "R2", "extra": "x"},
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	want := map[string]any{"baseUrl": "https://opera.test", "resortId": "R2", "username": "u", "extra": "x"}
	if fmt.Sprint(got.Config) != fmt.Sprint(want) {
		t.Fatalf("merged config = %v, want %v", got.Config, want)
	}
	if got.Provider != "opera" {
		t.Fatalf("provider changed: %s", got.Provider)
	}
	if !got.UpdatedAt.After(t0) {
		t.Fatalf("UpdatedAt must advance past the previous version: %v", got.UpdatedAt)
	}
	if cache.dels == 0 {
		t.Fatalf("update must invalidate the cache")
	}

	read, err := s.Get(ctx, 1, domain.DomainPMS)
	if err != nil || read.Config["resortId"] != "R2" {
		t.Fatalf("Get after Update returned stale row: %+v %v", read, err)
	}
}

func TestUpdate_InvalidProvider(t *testing.T) {
	s := app.NewConfigService(newFakeRepo(), nil, 0)
	_, err := s.Update(context.Background(), 1, domain.DomainPMS, domain.ConfigUpdate{Provider: ptr("fidelio")})
	var ipe *domain.InvalidProviderError
	if !errors.As(err, &ipe) {
		t.Fatalf("want InvalidProviderError, got %v", err)
	}
	if ipe.Code() != "invalid_pms_provider" {
		t.Fatalf("code = %s", ipe.Code())
	}

	_, err = s.Update(context.Background(), 1, domain.DomainDigitalKey, domain.ConfigUpdate{Provider: ptr("assa")})
	if !errors.As(err, &ipe) || ipe.Code() != "invalid_digital_key_provider" {
		t.Fatalf("digital key code: %v", err)
	}
}

func TestUpdate_TypeMismatchRejected(t *testing.T) {
	repo := newFakeRepo()
	s := app.NewConfigService(repo, nil, 0)
	_, err := s.Update(context.Background(), 1, domain.DomainSpa, domain.ConfigUpdate{
		Provider: ptr("mindbody"),
		Config:   map[string]any{"siteId": map[string]any{"nested": true}},
	})
	var ice *domain.InvalidConfigError
	if !errors.As(err, &ice) {
		t.Fatalf("want InvalidConfigError, got %v", err)
	}
	pc, _ := repo.Get(context.Background(), 1, domain.DomainSpa)
	if pc.Provider != "none" {
		t.Fatalf("rejected update must not be written: %+v", pc)
	}
}

func TestUpdate_ReappliesOnConflict(t *testing.T) {
	repo := newFakeRepo()
	s := app.NewConfigService(repo, nil, 0, app.WithConfigClock(fixedClock))
	ctx := context.Background()
	if _, err := s.Get(ctx, 5, domain.DomainPMS); err != nil {
		t.Fatal(err)
	}

	// Another writer lands between our read and our write.
	repo.beforeCAS = func(rows map[rowKey]domain.ProviderConfig) {
		k := rowKey{5, domain.DomainPMS}
		r := rows[k]
		r.Config = map[string]any{"resortId": "OTHER"}
		r.UpdatedAt = r.UpdatedAt.Add(time.Millisecond)
		rows[k] = r
	}
	got, err := s.Update(ctx, 5, domain.DomainPMS, domain.ConfigUpdate{ConfigPatch: map[string]any{"username": "me"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Config["resortId"] != "OTHER" || got.Config["username"] != "me" {
		t.Fatalf("lost update: %v", got.Config)
	}
}

func TestUpdate_GivesUpAfterAttempts(t *testing.T) {
	repo := newFakeRepo()
	repo.failCAS = true
	s := app.NewConfigService(repo, nil, 0, app.WithCASAttempts(3))
	_, err := s.Update(context.Background(), 1, domain.DomainPMS, domain.ConfigUpdate{ConfigPatch: map[string]any{"a": "b"}})
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("want ErrConcurrentUpdate, got %v", err)
	}
}

func TestUpdate_ConcurrentPatchesAreAllKept(t *testing.T) {
	repo := newFakeRepo()
	s := app.NewConfigService(repo, &fakeCache{}, time.Minute, app.WithCASAttempts(1000))
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, 9, domain.DomainPMS, domain.ConfigUpdate{
				ConfigPatch: map[string]any{fmt.Sprintf("k%d", i): "v"},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	pc, err := repo.Get(ctx, 9, domain.DomainPMS)
	if err != nil {
		t.Fatal(err)
	}
	if len(pc.Config) != writers {
		t.Fatalf("expected %d keys, got %d: %v", writers, len(pc.Config), pc.Config)
	}
}

func TestReset_RestoresDefault(t *testing.T) {
	repo := newFakeRepo()
	s := app.NewConfigService(repo, nil, 0)
	ctx := context.Background()
	if _, err := s.Update(ctx, 2, domain.DomainSpa, domain.ConfigUpdate{
		Provider: ptr("generic"), Config: map[string]any{"baseUrl": "https://spa.test"},
	}); err != nil {
		t.Fatal(err)
	}
	pc, err := s.Reset(ctx, 2, domain.DomainSpa)
	if err != nil {
		t.Fatal(err)
	}
	if pc.Provider != "none" || len(pc.Config) != 0 {
		t.Fatalf("reset row: %+v", pc)
	}
	ids, _ := s.ListHotels(ctx, domain.DomainSpa)
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("ListHotels: %v", ids)
	}
}

func TestMergeConfig_LeavesBaseAlone(t *testing.T) {
	base := map[string]any{"a": "1", "b": "2"}
	out := app.MergeConfig(base, map[string]any{"a": nil, "c": 3})
	if _, ok := out["a"]; ok {
		t.Fatalf("nil must delete")
	}
	if out["c"] != 3 || out["b"] != "2" {
		t.Fatalf("merge: %v", out)
	}
	if base["a"] != "1" || len(base) != 2 {
		t.Fatalf("base was mutated: %v", base)
	}
}
