// Package importer persists validated tutor records as entity graphs.
//
// Batch semantics are best-effort: one bad row is skipped, not the batch.
// Within a row the identity record is the gate; once it exists, each
// dependent record (profile, demographics, addresses, banking, academics,
// programs, availability) is created independently and an individual
// failure marks the row partial instead of rolling it back. Only an
// unreachable store or a cancelled batch context aborts the run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tutor-import-service/internal/models"
	"tutor-import-service/internal/storage"
	apperrors "tutor-import-service/pkg/errors"
	"tutor-import-service/pkg/logger"
)

// Config controls batch execution.
type Config struct {
	// RecordTimeout bounds the persistence of a single record's graph.
	RecordTimeout time.Duration
	// CodeRetries is how many times code generation retries on collision.
	CodeRetries int
}

// DefaultConfig returns the standard orchestrator settings.
func DefaultConfig() Config {
	return Config{
		RecordTimeout: 30 * time.Second,
		CodeRetries:   3,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.RecordTimeout <= 0 {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "record_timeout", c.RecordTimeout.String(), nil)
	}
	if c.CodeRetries < 1 {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "code_retries", c.CodeRetries, nil)
	}
	return nil
}

// Orchestrator walks validated records and persists their entity graphs.
type Orchestrator struct {
	store  storage.TutorStore
	config Config
	logger logger.Logger
}

// New creates an orchestrator over a tutor store.
func New(store storage.TutorStore, config Config) *Orchestrator {
	return &Orchestrator{
		store:  store,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("import_orchestrator"),
	}
}

// Import persists every valid record sequentially and returns the per-row
// outcomes. Invalid records are passed through as failed outcomes carrying
// their validation errors. The returned error is non-nil only when the
// batch aborted; outcomes for rows processed before the abort are still
// returned.
func (o *Orchestrator) Import(ctx context.Context, records []*models.ParsedRecord) ([]models.RowOutcome, error) {
	if err := o.store.Ping(ctx); err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryPersistence, apperrors.CodeStoreUnreachable,
			"store unreachable before import")
	}

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "tutor_import",
		Total:     int64(len(records)),
		Logger:    o.logger,
	})

	outcomes := make([]models.RowOutcome, 0, len(records))
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			o.logger.WithError(err).Warn("Batch context cancelled; aborting remaining rows")
			return outcomes, apperrors.PersistenceError(apperrors.CodeBatchAborted, "batch", err)
		}

		if !record.IsValid() {
			outcomes = append(outcomes, skippedOutcome(record))
			progress.Increment()
			continue
		}

		outcome, err := o.importRecord(ctx, record)
		outcomes = append(outcomes, outcome)
		progress.Increment()
		if err != nil {
			return outcomes, err
		}
	}

	progress.Complete()
	return outcomes, nil
}

// skippedOutcome converts an invalid record into a failed outcome without
// touching the store.
func skippedOutcome(record *models.ParsedRecord) models.RowOutcome {
	outcome := models.RowOutcome{Row: record.RowNumber}
	for _, msg := range record.Errors {
		outcome.Errors = append(outcome.Errors, models.RowMessage{Row: record.RowNumber, Message: msg})
	}
	for _, msg := range record.Warnings {
		outcome.Warnings = append(outcome.Warnings, models.RowMessage{Row: record.RowNumber, Message: msg})
	}
	return outcome
}

// importRecord persists one record's entity graph under the per-record
// timeout. The returned error is non-nil only for batch-fatal conditions.
func (o *Orchestrator) importRecord(ctx context.Context, record *models.ParsedRecord) (models.RowOutcome, error) {
	recordCtx, cancel := context.WithTimeout(ctx, o.config.RecordTimeout)
	defer cancel()

	outcome := models.RowOutcome{Row: record.RowNumber}
	for _, msg := range record.Warnings {
		outcome.Warnings = append(outcome.Warnings, models.RowMessage{Row: record.RowNumber, Message: msg})
	}

	rowError := func(msg string) models.RowOutcome {
		outcome.Success = false
		outcome.Errors = append(outcome.Errors, models.RowMessage{Row: record.RowNumber, Message: msg})
		return outcome
	}

	tutor := record.Tutor
	log := o.logger.WithField("row", record.RowNumber)

	exists, err := o.store.EmailExists(recordCtx, tutor.Email)
	if err != nil {
		if fatal := o.classifyFatal(ctx, recordCtx, err); fatal != nil {
			return rowError(fatal.Error()), fatal
		}
		return rowError(apperrors.PersistenceError(apperrors.CodeCreateFailed, "identity", err).Error()), nil
	}
	if exists {
		log.WithField("email", tutor.Email).Warn("Duplicate email; row skipped")
		return rowError(apperrors.PersistenceError(apperrors.CodeDuplicateRecord, "identity", nil).
			WithContext("email", tutor.Email).Error()), nil
	}

	code, err := o.generateCode(recordCtx)
	if err != nil {
		if fatal := o.classifyFatal(ctx, recordCtx, err); fatal != nil {
			return rowError(fatal.Error()), fatal
		}
		return rowError(err.Error()), nil
	}

	identity := &models.Identity{
		Code:     code,
		Email:    tutor.Email,
		FullName: tutor.FullName,
		Phone:    tutor.Phone,
	}
	if err := o.store.CreateIdentity(recordCtx, identity); err != nil {
		if fatal := o.classifyFatal(ctx, recordCtx, err); fatal != nil {
			return rowError(fatal.Error()), fatal
		}
		if isDuplicate(err) {
			return rowError(apperrors.PersistenceError(apperrors.CodeDuplicateRecord, "identity", err).Error()), nil
		}
		return rowError(apperrors.WrapIfNeeded(err, apperrors.CategoryPersistence, apperrors.CodeCreateFailed,
			"identity creation failed").Error()), nil
	}

	outcome.Success = true
	outcome.IdentityID = identity.ID
	log.WithFields(logger.Fields{
		"identity_id": identity.ID,
		"code":        identity.Code,
	}).Debug("Identity created")

	if fatal := o.createDependents(ctx, recordCtx, record, identity.ID, &outcome); fatal != nil {
		return outcome, fatal
	}
	return outcome, nil
}

// dependentStep is one independently-failing piece of the entity graph.
type dependentStep struct {
	entity string
	skip   bool
	create func(ctx context.Context) error
}

// createDependents creates every dependent record of the graph. Each
// failure is recorded against the outcome and marks the row partial;
// processing continues with the next dependent unless the failure is
// batch-fatal.
func (o *Orchestrator) createDependents(batchCtx, recordCtx context.Context,
	record *models.ParsedRecord, identityID string, outcome *models.RowOutcome) error {

	tutor := record.Tutor

	steps := []dependentStep{
		{
			entity: "profile",
			skip:   tutor.ExperienceDesc == "" && tutor.HourlyRate == nil,
			create: func(ctx context.Context) error {
				return o.store.CreateProfile(ctx, models.Profile{
					IdentityID:     identityID,
					ExperienceDesc: tutor.ExperienceDesc,
					HourlyRate:     tutor.HourlyRate,
				})
			},
		},
		{
			entity: "demographics",
			skip:   tutor.NIK == "" && tutor.Gender == models.GenderUnknown && tutor.BirthDate == nil,
			create: func(ctx context.Context) error {
				return o.store.CreateDemographics(ctx, models.Demographics{
					IdentityID: identityID,
					NIK:        tutor.NIK,
					Gender:     tutor.Gender,
					BirthDate:  tutor.BirthDate,
				})
			},
		},
		{
			entity: "domicile_address",
			skip:   tutor.DomicileAddress == "" && tutor.ProvinceText == "" && tutor.CityText == "",
			create: func(ctx context.Context) error {
				return o.store.CreateAddress(ctx, models.Address{
					IdentityID:   identityID,
					Type:         models.AddressDomicile,
					ProvinceID:   tutor.ProvinceID,
					ProvinceText: tutor.ProvinceText,
					CityID:       tutor.CityID,
					CityText:     tutor.CityText,
					Street:       tutor.DomicileAddress,
				})
			},
		},
		{
			entity: "identity_address",
			skip:   tutor.IdentityAddress == "",
			create: func(ctx context.Context) error {
				return o.store.CreateAddress(ctx, models.Address{
					IdentityID: identityID,
					Type:       models.AddressIdentity,
					Street:     tutor.IdentityAddress,
				})
			},
		},
		{
			entity: "banking_info",
			skip:   tutor.BankText == "" && tutor.AccountNumber == "",
			create: func(ctx context.Context) error {
				return o.store.CreateBankingInfo(ctx, models.BankingInfo{
					IdentityID:    identityID,
					BankID:        tutor.BankID,
					BankText:      tutor.BankText,
					AccountNumber: tutor.AccountNumber,
					AccountHolder: tutor.AccountHolder,
				})
			},
		},
		{
			entity: "academic_detail",
			skip: tutor.EducationLevel == "" && tutor.University == "" &&
				tutor.Major == "" && tutor.GPA == nil,
			create: func(ctx context.Context) error {
				return o.store.CreateAcademicDetail(ctx, models.AcademicDetail{
					IdentityID:     identityID,
					EducationLevel: tutor.EducationLevel,
					University:     tutor.University,
					Major:          tutor.Major,
					GPA:            tutor.GPA,
				})
			},
		},
	}

	for _, subject := range tutor.Subjects {
		subject := subject
		if subject.Matched {
			steps = append(steps, dependentStep{
				entity: "program_association",
				create: func(ctx context.Context) error {
					return o.store.CreateProgramAssociation(ctx, models.ProgramAssociation{
						IdentityID: identityID,
						SubjectID:  subject.ReferenceID,
					})
				},
			})
		} else {
			steps = append(steps, dependentStep{
				entity: "additional_subject",
				create: func(ctx context.Context) error {
					return o.store.CreateAdditionalSubject(ctx, models.AdditionalSubject{
						IdentityID: identityID,
						Name:       subject.Token,
					})
				},
			})
		}
	}

	steps = append(steps, dependentStep{
		entity: "availability",
		skip:   len(tutor.TeachingDays) == 0 && !tutor.TeachesOnline && !tutor.AcceptingStudents,
		create: func(ctx context.Context) error {
			return o.store.CreateAvailability(ctx, models.AvailabilityConfig{
				IdentityID:        identityID,
				TeachingDays:      tutor.TeachingDays,
				TeachesOnline:     tutor.TeachesOnline,
				AcceptingStudents: tutor.AcceptingStudents,
			})
		},
	})

	steps = append(steps, dependentStep{
		entity: "role_assignment",
		create: func(ctx context.Context) error {
			return o.store.AssignTutorRole(ctx, identityID)
		},
	})

	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := step.create(recordCtx); err != nil {
			if fatal := o.classifyFatal(batchCtx, recordCtx, err); fatal != nil {
				return fatal
			}
			outcome.Partial = true
			outcome.Warnings = append(outcome.Warnings, models.RowMessage{
				Row:     outcome.Row,
				Message: fmt.Sprintf("%s not saved: %v", step.entity, err),
			})
			o.logger.WithError(err).WithFields(logger.Fields{
				"row":    outcome.Row,
				"entity": step.entity,
			}).Warn("Dependent record failed; row kept partial")
		}
	}

	return nil
}

// classifyFatal decides whether a store error must abort the batch. A
// cancelled batch context or an unreachable store is fatal; an expired
// per-record timeout aborts too, since a store that stalls on one record
// cannot be trusted with the next hundred.
func (o *Orchestrator) classifyFatal(batchCtx, recordCtx context.Context, err error) *apperrors.ImportError {
	if batchCtx.Err() != nil {
		return apperrors.PersistenceError(apperrors.CodeBatchAborted, "batch", batchCtx.Err())
	}
	if recordCtx.Err() != nil {
		return apperrors.PersistenceError(apperrors.CodeBatchAborted, "batch", recordCtx.Err()).
			WithSuggestion("the store stopped responding mid-record; check database load and re-run for remaining rows")
	}
	if importErr, ok := apperrors.AsImportError(err); ok && importErr.Fatal() {
		return importErr
	}
	return nil
}

// generateCode produces a unique tutor code, retrying on the unlikely
// collision of the random suffix.
func (o *Orchestrator) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < o.config.CodeRetries; attempt++ {
		code := "TUT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		exists, err := o.store.CodeExists(ctx, code)
		if err != nil {
			return "", apperrors.WrapIfNeeded(err, apperrors.CategoryPersistence, apperrors.CodeCreateFailed,
				"tutor code uniqueness check failed")
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.PersistenceError(apperrors.CodeCreateFailed, "identity", nil).
		WithSuggestion("tutor code generation kept colliding; this should be practically impossible")
}

func isDuplicate(err error) bool {
	return errors.Is(err, storage.ErrDuplicate)
}
