// Package storage provides the persistence boundary of the import pipeline:
// loading reference collections and writing tutor entity graphs. The
// orchestrator depends only on the interfaces here, so tests run against an
// in-memory fake and production runs against Postgres.
package storage

import (
	"context"
	"errors"

	"tutor-import-service/internal/models"
)

// ErrDuplicate is returned by create operations that hit a uniqueness
// constraint. Callers match it with errors.Is to map the failure onto a
// row-level duplicate error instead of a generic create failure.
var ErrDuplicate = errors.New("duplicate record")

// ReferenceStore loads the lookup collections used for fuzzy resolution.
// It satisfies refdata.Loader.
type ReferenceStore interface {
	LoadProvinces(ctx context.Context) ([]models.ReferenceEntity, error)
	LoadCities(ctx context.Context) ([]models.ReferenceEntity, error)
	LoadBanks(ctx context.Context) ([]models.ReferenceEntity, error)
	LoadSubjects(ctx context.Context) ([]models.ReferenceEntity, error)
}

// TutorStore writes the tutor entity graph. CreateIdentity assigns the
// generated id onto the passed identity; every other create references that
// id. Implementations return ErrDuplicate (possibly wrapped) for uniqueness
// violations.
type TutorStore interface {
	// Ping verifies the store is reachable before a batch starts.
	Ping(ctx context.Context) error

	EmailExists(ctx context.Context, email string) (bool, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	CreateIdentity(ctx context.Context, identity *models.Identity) error
	CreateProfile(ctx context.Context, profile models.Profile) error
	CreateDemographics(ctx context.Context, demographics models.Demographics) error
	CreateAddress(ctx context.Context, address models.Address) error
	CreateBankingInfo(ctx context.Context, banking models.BankingInfo) error
	CreateAcademicDetail(ctx context.Context, academic models.AcademicDetail) error
	CreateProgramAssociation(ctx context.Context, association models.ProgramAssociation) error
	CreateAdditionalSubject(ctx context.Context, subject models.AdditionalSubject) error
	CreateAvailability(ctx context.Context, availability models.AvailabilityConfig) error

	// AssignTutorRole grants the tutor role to a created identity. Role
	// assignment is the last step of the graph and is never row-fatal.
	AssignTutorRole(ctx context.Context, identityID string) error
}

// Store combines both persistence roles. The Postgres implementation
// satisfies it with a single connection pool.
type Store interface {
	ReferenceStore
	TutorStore
}
