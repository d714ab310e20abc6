package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/HSouheill/affiliate_signup/models"
	"github.com/HSouheill/affiliate_signup/utils"
)

// FieldCatalog maps normalized custom field labels to Tapfiliate field keys
type FieldCatalog map[string]string

// CatalogSnapshot is a catalog together with the time it was fetched
type CatalogSnapshot struct {
	Fields    FieldCatalog `json:"fields"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// RefreshPolicy decides when a cached catalog must be fetched again. A TTL of
// zero disables caching. A snapshot missing any RequiredLabels is refetched
// regardless of its age.
type RefreshPolicy struct {
	TTL            time.Duration
	RequiredLabels []string
}

// NeedsRefresh reports whether snapshot can no longer be served at now
func (p RefreshPolicy) NeedsRefresh(snapshot *CatalogSnapshot, now time.Time) bool {
	if snapshot == nil || snapshot.Fields == nil {
		return true
	}
	for _, label := range p.RequiredLabels {
		if _, ok := snapshot.Fields[utils.NormalizeLabel(label)]; !ok {
			return true
		}
	}
	if p.TTL <= 0 {
		return true
	}
	return now.Sub(snapshot.FetchedAt) >= p.TTL
}

// CatalogFetcher loads the custom field catalog from Tapfiliate
type CatalogFetcher interface {
	ListCustomFields(ctx context.Context) ([]models.CustomField, error)
}

// CustomFieldCache resolves custom field labels to keys, refreshing the
// catalog from Tapfiliate according to its RefreshPolicy.
type CustomFieldCache struct {
	fetcher CatalogFetcher
	store   CatalogStore
	policy  RefreshPolicy
	now     func() time.Time
}

// NewCustomFieldCache creates a cache. A nil store keeps snapshots in memory.
func NewCustomFieldCache(fetcher CatalogFetcher, store CatalogStore, policy RefreshPolicy) *CustomFieldCache {
	if store == nil {
		store = NewMemoryCatalogStore()
	}
	return &CustomFieldCache{
		fetcher: fetcher,
		store:   store,
		policy:  policy,
		now:     time.Now,
	}
}

// BuildFieldCatalog indexes custom fields by normalized label
func BuildFieldCatalog(fields []models.CustomField) FieldCatalog {
	catalog := make(FieldCatalog, len(fields))
	for _, field := range fields {
		label := utils.NormalizeLabel(field.DisplayLabel())
		key := field.FieldKey()
		if label == "" || key == "" {
			continue
		}
		catalog[label] = key
	}
	return catalog
}

// Catalog returns the current catalog, fetching a fresh one when the policy
// requires it. If the fetch fails a previously stored catalog is served.
func (c *CustomFieldCache) Catalog(ctx context.Context) (FieldCatalog, error) {
	cached, err := c.store.Load(ctx)
	if err != nil {
		log.Printf("[%s] Warning: could not load cached custom fields: %v", RequestIDFromContext(ctx), err)
		cached = nil
	}

	now := c.now()
	if !c.policy.NeedsRefresh(cached, now) {
		return cached.Fields, nil
	}

	fields, err := c.fetcher.ListCustomFields(ctx)
	if err != nil {
		if cached != nil && len(cached.Fields) > 0 {
			log.Printf("[%s] Warning: custom field refresh failed, using catalog from %s: %v",
				RequestIDFromContext(ctx), cached.FetchedAt.Format(time.RFC3339), err)
			return cached.Fields, nil
		}
		return nil, err
	}

	snapshot := &CatalogSnapshot{Fields: BuildFieldCatalog(fields), FetchedAt: now}
	if err := c.store.Save(ctx, snapshot); err != nil {
		log.Printf("[%s] Warning: could not store custom fields: %v", RequestIDFromContext(ctx), err)
	}
	return snapshot.Fields, nil
}

// Resolve maps label → value pairs to key → value pairs. Labels missing from
// the catalog are skipped and logged; a catalog that cannot be loaded yields
// an empty result.
func (c *CustomFieldCache) Resolve(ctx context.Context, values map[string]string) map[string]string {
	resolved := make(map[string]string, len(values))
	if len(values) == 0 {
		return resolved
	}

	catalog, err := c.Catalog(ctx)
	if err != nil {
		log.Printf("[%s] Warning: custom fields skipped, catalog unavailable: %v", RequestIDFromContext(ctx), err)
		return resolved
	}

	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		key, ok := catalog[utils.NormalizeLabel(label)]
		if !ok {
			log.Printf("[%s] Custom field %q not found in Tapfiliate, skipping", RequestIDFromContext(ctx), label)
			continue
		}
		resolved[key] = values[label]
	}
	return resolved
}
