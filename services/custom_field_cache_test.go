package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/HSouheill/affiliate_signup/models"
	"github.com/HSouheill/affiliate_signup/utils"
)

type stubFetcher struct {
	mu     sync.Mutex
	fields []models.CustomField
	err    error
	calls  int
}

func (f *stubFetcher) ListCustomFields(_ context.Context) ([]models.CustomField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

func (f *stubFetcher) set(fields []models.CustomField, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
	f.err = err
}

func (f *stubFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var catalogFields = []models.CustomField{
	{Key: "company_type", Title: "Company Type"},
	{Key: "commission_type", Title: "  commission type"},
	{ID: "77", Label: "Wants demo call"},
	{Key: "", Title: "No key"},
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time       { return c.t }
func (c *clock) add(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(fetcher CatalogFetcher, store CatalogStore, policy RefreshPolicy) (*CustomFieldCache, *clock) {
	cache := NewCustomFieldCache(fetcher, store, policy)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache.now = c.now
	return cache, c
}

func TestBuildFieldCatalog(t *testing.T) {
	catalog := BuildFieldCatalog(catalogFields)
	want := FieldCatalog{
		"company type":    "company_type",
		"commission type": "commission_type",
		"wants demo call": "77",
	}
	if !reflect.DeepEqual(catalog, want) {
		t.Errorf("unexpected catalog %v", catalog)
	}
}

func TestResolve(t *testing.T) {
	fetcher := &stubFetcher{fields: catalogFields}
	cache, _ := newTestCache(fetcher, nil, RefreshPolicy{})

	resolved := cache.Resolve(context.Background(), map[string]string{
		utils.LabelCommissionType: "I want 10% commission",
		utils.LabelDemoCall:       "Yes",
		"unknown label":           "dropped",
	})
	want := map[string]string{
		"commission_type": "I want 10% commission",
		"77":              "Yes",
	}
	if !reflect.DeepEqual(resolved, want) {
		t.Errorf("unexpected resolution %v", resolved)
	}
}

func TestResolveWithoutValuesSkipsFetch(t *testing.T) {
	fetcher := &stubFetcher{fields: catalogFields}
	cache, _ := newTestCache(fetcher, nil, RefreshPolicy{})

	if resolved := cache.Resolve(context.Background(), nil); len(resolved) != 0 {
		t.Errorf("expected empty result, got %v", resolved)
	}
	if fetcher.count() != 0 {
		t.Errorf("expected no fetch, got %d", fetcher.count())
	}
}

func TestResolveWithUnavailableCatalog(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("tapfiliate down")}
	cache, _ := newTestCache(fetcher, nil, RefreshPolicy{})

	resolved := cache.Resolve(context.Background(), map[string]string{utils.LabelCommissionType: "x"})
	if len(resolved) != 0 {
		t.Errorf("expected empty result, got %v", resolved)
	}
}

func TestZeroTTLFetchesEveryTime(t *testing.T) {
	fetcher := &stubFetcher{fields: catalogFields}
	cache, _ := newTestCache(fetcher, nil, RefreshPolicy{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.Catalog(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if fetcher.count() != 3 {
		t.Errorf("expected 3 fetches, got %d", fetcher.count())
	}
}

func TestTTLCachesUntilExpiry(t *testing.T) {
	fetcher := &stubFetcher{fields: catalogFields}
	cache, clk := newTestCache(fetcher, nil, RefreshPolicy{TTL: time.Minute})
	ctx := context.Background()

	cache.Catalog(ctx)
	clk.add(30 * time.Second)
	cache.Catalog(ctx)
	if fetcher.count() != 1 {
		t.Fatalf("expected a cached catalog, got %d fetches", fetcher.count())
	}

	clk.add(31 * time.Second)
	cache.Catalog(ctx)
	if fetcher.count() != 2 {
		t.Errorf("expected a refetch after expiry, got %d fetches", fetcher.count())
	}
}

func TestRequiredLabelForcesRefresh(t *testing.T) {
	fetcher := &stubFetcher{fields: []models.CustomField{{Key: "company_type", Title: "Company type"}}}
	cache, _ := newTestCache(fetcher, nil, RefreshPolicy{
		TTL:            time.Hour,
		RequiredLabels: []string{utils.LabelCommissionType},
	})
	ctx := context.Background()

	cache.Catalog(ctx)
	cache.Catalog(ctx)
	if fetcher.count() != 2 {
		t.Fatalf("expected a refetch while the commission field is missing, got %d", fetcher.count())
	}

	// the field was added in the dashboard
	fetcher.set(catalogFields, nil)
	catalog, _ := cache.Catalog(ctx)
	if catalog[utils.LabelCommissionType] != "commission_type" {
		t.Errorf("expected the new field, got %v", catalog)
	}
	cache.Catalog(ctx)
	if fetcher.count() != 3 {
		t.Errorf("expected the complete catalog to be cached, got %d fetches", fetcher.count())
	}
}

func TestStaleCatalogServedOnFailure(t *testing.T) {
	fetcher := &stubFetcher{fields: catalogFields}
	cache, clk := newTestCache(fetcher, nil, RefreshPolicy{TTL: time.Minute})
	ctx := context.Background()

	cache.Catalog(ctx)
	clk.add(2 * time.Minute)
	fetcher.set(nil, errors.New("tapfiliate down"))

	catalog, err := cache.Catalog(ctx)
	if err != nil {
		t.Fatalf("expected the stale catalog, got %v", err)
	}
	if catalog[utils.LabelCompanyType] != "company_type" {
		t.Errorf("unexpected catalog %v", catalog)
	}
}

func TestRefreshPolicyNeedsRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := &CatalogSnapshot{Fields: FieldCatalog{"commission type": "commission_type"}, FetchedAt: now}

	tests := []struct {
		name     string
		policy   RefreshPolicy
		snapshot *CatalogSnapshot
		at       time.Time
		want     bool
	}{
		{"no snapshot", RefreshPolicy{TTL: time.Hour}, nil, now, true},
		{"fresh", RefreshPolicy{TTL: time.Hour}, fresh, now.Add(time.Minute), false},
		{"expired", RefreshPolicy{TTL: time.Hour}, fresh, now.Add(time.Hour), true},
		{"caching disabled", RefreshPolicy{}, fresh, now, true},
		{"required present", RefreshPolicy{TTL: time.Hour, RequiredLabels: []string{"Commission Type"}}, fresh, now, false},
		{"required absent", RefreshPolicy{TTL: time.Hour, RequiredLabels: []string{"company type"}}, fresh, now, true},
	}
	for _, tt := range tests {
		if got := tt.policy.NeedsRefresh(tt.snapshot, tt.at); got != tt.want {
			t.Errorf("%s: got %t, want %t", tt.name, got, tt.want)
		}
	}
}

func TestMemoryCatalogStore(t *testing.T) {
	store := NewMemoryCatalogStore()
	ctx := context.Background()

	if snapshot, err := store.Load(ctx); snapshot != nil || err != nil {
		t.Fatalf("expected an empty store, got %v, %v", snapshot, err)
	}
	saved := &CatalogSnapshot{Fields: FieldCatalog{"a": "b"}}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatal(err)
	}
	if loaded, _ := store.Load(ctx); loaded != saved {
		t.Errorf("expected the saved snapshot back")
	}
}

func TestUnreachableRedisFallsBackToFetching(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisCatalogStore(client, "", time.Hour)
	if store.key != DefaultCatalogRedisKey {
		t.Errorf("unexpected key %q", store.key)
	}

	fetcher := &stubFetcher{fields: catalogFields}
	cache, _ := newTestCache(fetcher, store, RefreshPolicy{TTL: time.Hour})

	resolved := cache.Resolve(context.Background(), map[string]string{utils.LabelCompanyType: "Agency"})
	if resolved["company_type"] != "Agency" {
		t.Errorf("expected resolution despite redis being down, got %v", resolved)
	}
	if fetcher.count() != 1 {
		t.Errorf("expected a direct fetch, got %d", fetcher.count())
	}
}
