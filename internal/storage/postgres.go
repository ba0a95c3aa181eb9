package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutor-import-service/internal/models"
	apperrors "tutor-import-service/pkg/errors"
	"tutor-import-service/pkg/logger"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// Connect opens a connection pool against the given DSN and verifies it
// with a ping.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig, "database_dsn", nil, nil)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.PersistenceError(apperrors.CodeStoreUnreachable, "database", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.PersistenceError(apperrors.CodeStoreUnreachable, "database", err)
	}

	return &PostgresStore{
		pool:   pool,
		logger: logger.GetGlobalLogger().WithComponent("postgres_store"),
	}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the store is still reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperrors.PersistenceError(apperrors.CodeStoreUnreachable, "database", err)
	}
	return nil
}

const uniqueViolation = "23505"

// translateCreate maps a driver error onto the store's error contract.
func translateCreate(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", entity, ErrDuplicate)
	}
	return apperrors.PersistenceError(apperrors.CodeCreateFailed, entity, err)
}

func (s *PostgresStore) loadReference(ctx context.Context, query, collection string) ([]models.ReferenceEntity, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.PersistenceError(apperrors.CodeCreateFailed, collection, err).
			WithSuggestion("check that the reference tables exist and are readable")
	}
	defer rows.Close()

	var entities []models.ReferenceEntity
	for rows.Next() {
		var e models.ReferenceEntity
		if err := rows.Scan(&e.ID, &e.Name, &e.LocalName, &e.ParentID); err != nil {
			return nil, apperrors.InternalError(apperrors.CodeUnexpectedError, "scanning "+collection, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.PersistenceError(apperrors.CodeStoreUnreachable, collection, err)
	}

	s.logger.WithFields(logger.Fields{
		"collection": collection,
		"entities":   len(entities),
	}).Debug("Reference collection loaded")
	return entities, nil
}

func (s *PostgresStore) LoadProvinces(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.loadReference(ctx,
		`SELECT id, name, COALESCE(local_name, ''), '' FROM ref_provinces ORDER BY name`,
		"provinces")
}

func (s *PostgresStore) LoadCities(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.loadReference(ctx,
		`SELECT id, name, COALESCE(local_name, ''), province_id FROM ref_cities ORDER BY name`,
		"cities")
}

func (s *PostgresStore) LoadBanks(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.loadReference(ctx,
		`SELECT id, name, COALESCE(short_code, ''), '' FROM ref_banks ORDER BY name`,
		"banks")
}

func (s *PostgresStore) LoadSubjects(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.loadReference(ctx,
		`SELECT id, name, COALESCE(local_name, ''), '' FROM ref_subjects ORDER BY name`,
		"subjects")
}

func (s *PostgresStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tutor_identities WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, apperrors.PersistenceError(apperrors.CodeStoreUnreachable, "identity", err)
	}
	return exists, nil
}

func (s *PostgresStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tutor_identities WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, apperrors.PersistenceError(apperrors.CodeStoreUnreachable, "identity", err)
	}
	return exists, nil
}

// CreateIdentity inserts the root identity record and assigns the generated
// id back onto the passed identity.
func (s *PostgresStore) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tutor_identities (code, email, full_name, phone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		identity.Code, identity.Email, identity.FullName, identity.Phone,
	).Scan(&identity.ID)
	if err != nil {
		return translateCreate("identity", err)
	}
	return nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, profile models.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_profiles (identity_id, experience_desc, hourly_rate)
		 VALUES ($1, $2, $3)`,
		profile.IdentityID, profile.ExperienceDesc, profile.HourlyRate)
	if err != nil {
		return translateCreate("profile", err)
	}
	return nil
}

func (s *PostgresStore) CreateDemographics(ctx context.Context, demographics models.Demographics) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_demographics (identity_id, nik, gender, birth_date)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)`,
		demographics.IdentityID, demographics.NIK, string(demographics.Gender), demographics.BirthDate)
	if err != nil {
		return translateCreate("demographics", err)
	}
	return nil
}

func (s *PostgresStore) CreateAddress(ctx context.Context, address models.Address) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_addresses (identity_id, address_type, province_id, province_text, city_id, city_text, street)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7)`,
		address.IdentityID, string(address.Type),
		address.ProvinceID, address.ProvinceText,
		address.CityID, address.CityText,
		address.Street)
	if err != nil {
		return translateCreate("address", err)
	}
	return nil
}

func (s *PostgresStore) CreateBankingInfo(ctx context.Context, banking models.BankingInfo) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_banking_info (identity_id, bank_id, bank_text, account_number, account_holder)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5)`,
		banking.IdentityID, banking.BankID, banking.BankText,
		banking.AccountNumber, banking.AccountHolder)
	if err != nil {
		return translateCreate("banking_info", err)
	}
	return nil
}

func (s *PostgresStore) CreateAcademicDetail(ctx context.Context, academic models.AcademicDetail) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_academic_details (identity_id, education_level, university, major, gpa)
		 VALUES ($1, $2, $3, $4, $5)`,
		academic.IdentityID, academic.EducationLevel, academic.University, academic.Major, academic.GPA)
	if err != nil {
		return translateCreate("academic_detail", err)
	}
	return nil
}

func (s *PostgresStore) CreateProgramAssociation(ctx context.Context, association models.ProgramAssociation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_program_associations (identity_id, subject_id)
		 VALUES ($1, $2)
		 ON CONFLICT (identity_id, subject_id) DO NOTHING`,
		association.IdentityID, association.SubjectID)
	if err != nil {
		return translateCreate("program_association", err)
	}
	return nil
}

func (s *PostgresStore) CreateAdditionalSubject(ctx context.Context, subject models.AdditionalSubject) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_additional_subjects (identity_id, name)
		 VALUES ($1, $2)`,
		subject.IdentityID, subject.Name)
	if err != nil {
		return translateCreate("additional_subject", err)
	}
	return nil
}

func (s *PostgresStore) CreateAvailability(ctx context.Context, availability models.AvailabilityConfig) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tutor_availability (identity_id, teaching_days, teaches_online, accepting_students)
		 VALUES ($1, $2, $3, $4)`,
		availability.IdentityID, availability.TeachingDays,
		availability.TeachesOnline, availability.AcceptingStudents)
	if err != nil {
		return translateCreate("availability", err)
	}
	return nil
}

// AssignTutorRole grants the tutor role, creating nothing when the identity
// already holds it.
func (s *PostgresStore) AssignTutorRole(ctx context.Context, identityID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO identity_roles (identity_id, role)
		 VALUES ($1, 'tutor')
		 ON CONFLICT (identity_id, role) DO NOTHING`,
		identityID)
	if err != nil {
		return translateCreate("role_assignment", err)
	}
	return nil
}
