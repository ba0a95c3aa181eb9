// Package refdata loads and indexes the lookup collections (provinces,
// cities, banks, subjects) that free-text upload values are resolved
// against. A Cache is built once per import session and is read-only for
// its lifetime, so it is safe to share across all rows of one import.
package refdata

import (
	"context"

	"tutor-import-service/internal/models"
	"tutor-import-service/pkg/logger"
)

// Loader supplies the four reference collections from the backing store.
type Loader interface {
	LoadProvinces(ctx context.Context) ([]models.ReferenceEntity, error)
	LoadCities(ctx context.Context) ([]models.ReferenceEntity, error)
	LoadBanks(ctx context.Context) ([]models.ReferenceEntity, error)
	LoadSubjects(ctx context.Context) ([]models.ReferenceEntity, error)
}

// Cache holds the reference collections for one import session. A
// collection whose load failed is marked degraded and resolves to "no
// match" instead of aborting the import.
type Cache struct {
	provinces []models.ReferenceEntity
	cities    []models.ReferenceEntity
	banks     []models.ReferenceEntity
	subjects  []models.ReferenceEntity

	citiesByProvince map[string][]models.ReferenceEntity
	degraded         map[models.ReferenceKind]bool
}

// Load builds a Cache from the loader. Individual collection failures are
// logged and degrade that collection; Load itself never fails.
func Load(ctx context.Context, loader Loader) *Cache {
	log := logger.GetGlobalLogger().WithComponent("refdata_cache")

	cache := &Cache{
		degraded: make(map[models.ReferenceKind]bool),
	}

	load := func(kind models.ReferenceKind, fn func(context.Context) ([]models.ReferenceEntity, error)) []models.ReferenceEntity {
		entities, err := fn(ctx)
		if err != nil {
			log.WithError(err).WithField("collection", string(kind)).
				Warn("Reference collection failed to load; resolution degrades to no-match")
			cache.degraded[kind] = true
			return nil
		}
		log.WithFields(logger.Fields{
			"collection": string(kind),
			"entities":   len(entities),
		}).Debug("Reference collection loaded")
		return entities
	}

	cache.provinces = load(models.ReferenceProvinces, loader.LoadProvinces)
	cache.cities = load(models.ReferenceCities, loader.LoadCities)
	cache.banks = load(models.ReferenceBanks, loader.LoadBanks)
	cache.subjects = load(models.ReferenceSubjects, loader.LoadSubjects)

	cache.citiesByProvince = make(map[string][]models.ReferenceEntity)
	for _, city := range cache.cities {
		cache.citiesByProvince[city.ParentID] = append(cache.citiesByProvince[city.ParentID], city)
	}

	return cache
}

// Provinces returns the province collection.
func (c *Cache) Provinces() []models.ReferenceEntity {
	return c.provinces
}

// Cities returns every city, regardless of province.
func (c *Cache) Cities() []models.ReferenceEntity {
	return c.cities
}

// CitiesInProvince returns the cities owned by the given province. An empty
// province id returns all cities, so city resolution still works when the
// province itself did not resolve.
func (c *Cache) CitiesInProvince(provinceID string) []models.ReferenceEntity {
	if provinceID == "" {
		return c.cities
	}
	return c.citiesByProvince[provinceID]
}

// Banks returns the bank collection.
func (c *Cache) Banks() []models.ReferenceEntity {
	return c.banks
}

// Subjects returns the subject/program collection.
func (c *Cache) Subjects() []models.ReferenceEntity {
	return c.subjects
}

// Degraded reports whether the given collection failed to load.
func (c *Cache) Degraded(kind models.ReferenceKind) bool {
	return c.degraded[kind]
}

// FullyDegraded reports whether every collection failed to load. Callers
// treat this as reference data being entirely unavailable.
func (c *Cache) FullyDegraded() bool {
	return c.degraded[models.ReferenceProvinces] &&
		c.degraded[models.ReferenceCities] &&
		c.degraded[models.ReferenceBanks] &&
		c.degraded[models.ReferenceSubjects]
}
