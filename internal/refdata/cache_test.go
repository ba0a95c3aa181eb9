package refdata

import (
	"context"
	"fmt"
	"testing"

	"tutor-import-service/internal/models"
)

// fakeLoader returns canned collections and can fail selected ones.
type fakeLoader struct {
	provinces []models.ReferenceEntity
	cities    []models.ReferenceEntity
	banks     []models.ReferenceEntity
	subjects  []models.ReferenceEntity
	fail      map[models.ReferenceKind]bool
}

func (f *fakeLoader) load(kind models.ReferenceKind, entities []models.ReferenceEntity) ([]models.ReferenceEntity, error) {
	if f.fail[kind] {
		return nil, fmt.Errorf("%s load failed", kind)
	}
	return entities, nil
}

func (f *fakeLoader) LoadProvinces(ctx context.Context) ([]models.ReferenceEntity, error) {
	return f.load(models.ReferenceProvinces, f.provinces)
}
func (f *fakeLoader) LoadCities(ctx context.Context) ([]models.ReferenceEntity, error) {
	return f.load(models.ReferenceCities, f.cities)
}
func (f *fakeLoader) LoadBanks(ctx context.Context) ([]models.ReferenceEntity, error) {
	return f.load(models.ReferenceBanks, f.banks)
}
func (f *fakeLoader) LoadSubjects(ctx context.Context) ([]models.ReferenceEntity, error) {
	return f.load(models.ReferenceSubjects, f.subjects)
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		provinces: []models.ReferenceEntity{
			{ID: "p1", Name: "DKI Jakarta"},
			{ID: "p2", Name: "Jawa Barat"},
		},
		cities: []models.ReferenceEntity{
			{ID: "c1", Name: "Jakarta Selatan", ParentID: "p1"},
			{ID: "c2", Name: "Jakarta Timur", ParentID: "p1"},
			{ID: "c3", Name: "Bandung", ParentID: "p2"},
		},
		banks: []models.ReferenceEntity{
			{ID: "b1", Name: "Bank Central Asia", LocalName: "BCA"},
		},
		subjects: []models.ReferenceEntity{
			{ID: "s1", Name: "Matematika"},
			{ID: "s2", Name: "Fisika"},
		},
		fail: make(map[models.ReferenceKind]bool),
	}
}

func TestLoadAllCollections(t *testing.T) {
	cache := Load(context.Background(), newFakeLoader())

	if len(cache.Provinces()) != 2 {
		t.Errorf("provinces = %d, want 2", len(cache.Provinces()))
	}
	if len(cache.Cities()) != 3 {
		t.Errorf("cities = %d, want 3", len(cache.Cities()))
	}
	if len(cache.Banks()) != 1 {
		t.Errorf("banks = %d, want 1", len(cache.Banks()))
	}
	if len(cache.Subjects()) != 2 {
		t.Errorf("subjects = %d, want 2", len(cache.Subjects()))
	}
	if cache.FullyDegraded() {
		t.Error("healthy cache reported fully degraded")
	}
}

func TestCitiesInProvince(t *testing.T) {
	cache := Load(context.Background(), newFakeLoader())

	jakarta := cache.CitiesInProvince("p1")
	if len(jakarta) != 2 {
		t.Errorf("cities in p1 = %d, want 2", len(jakarta))
	}

	// An unresolved province falls back to the full city list.
	all := cache.CitiesInProvince("")
	if len(all) != 3 {
		t.Errorf("cities for empty province = %d, want all 3", len(all))
	}

	if got := cache.CitiesInProvince("unknown"); len(got) != 0 {
		t.Errorf("cities in unknown province = %d, want 0", len(got))
	}
}

func TestLoadPartialDegrade(t *testing.T) {
	loader := newFakeLoader()
	loader.fail[models.ReferenceBanks] = true

	cache := Load(context.Background(), loader)

	if !cache.Degraded(models.ReferenceBanks) {
		t.Error("banks should be degraded")
	}
	if cache.Degraded(models.ReferenceProvinces) {
		t.Error("provinces should not be degraded")
	}
	if len(cache.Banks()) != 0 {
		t.Errorf("degraded banks = %d entities, want 0", len(cache.Banks()))
	}
	if cache.FullyDegraded() {
		t.Error("one failed collection is not fully degraded")
	}
}

func TestLoadFullyDegraded(t *testing.T) {
	loader := newFakeLoader()
	for _, kind := range []models.ReferenceKind{
		models.ReferenceProvinces, models.ReferenceCities,
		models.ReferenceBanks, models.ReferenceSubjects,
	} {
		loader.fail[kind] = true
	}

	cache := Load(context.Background(), loader)
	if !cache.FullyDegraded() {
		t.Error("all collections failed; cache should be fully degraded")
	}
}
