package validator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tutor-import-service/internal/models"
	"tutor-import-service/internal/refdata"
	"tutor-import-service/internal/resolver"
	apperrors "tutor-import-service/pkg/errors"
	"tutor-import-service/pkg/logger"
)

// Config carries the confidence thresholds applied to fuzzy resolution.
// Locations and banks feed persisted foreign keys, so they demand a higher
// band than subject names, which degrade gracefully to free text.
type Config struct {
	LocationMinScore int
	BankMinScore     int
	SubjectMinScore  int

	MinAge int
	MaxAge int

	MinHourlyRate decimal.Decimal
	MaxHourlyRate decimal.Decimal
}

// DefaultConfig returns the standard validation thresholds.
func DefaultConfig() Config {
	return Config{
		LocationMinScore: 90,
		BankMinScore:     90,
		SubjectMinScore:  75,
		MinAge:           17,
		MaxAge:           70,
		MinHourlyRate:    decimal.NewFromInt(25000),
		MaxHourlyRate:    decimal.NewFromInt(500000),
	}
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	for name, score := range map[string]int{
		"location_min_score": c.LocationMinScore,
		"bank_min_score":     c.BankMinScore,
		"subject_min_score":  c.SubjectMinScore,
	} {
		if score < 0 || score > 100 {
			return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, name, score, nil)
		}
	}
	if c.MinAge > c.MaxAge {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "min_age", c.MinAge, nil)
	}
	if c.MinHourlyRate.GreaterThan(c.MaxHourlyRate) {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "min_hourly_rate", c.MinHourlyRate.String(), nil)
	}
	return nil
}

// RecordValidator validates uploaded rows against the canonical field table
// and resolves free-text reference fields through the fuzzy resolver.
type RecordValidator struct {
	cache    *refdata.Cache
	strategy resolver.Strategy
	config   Config
	now      func() time.Time
	logger   logger.Logger
}

// New creates a RecordValidator over a loaded reference cache.
func New(cache *refdata.Cache, strategy resolver.Strategy, config Config) *RecordValidator {
	return &RecordValidator{
		cache:    cache,
		strategy: strategy,
		config:   config,
		now:      time.Now,
		logger:   logger.GetGlobalLogger().WithComponent("validator"),
	}
}

// MapHeaders maps the file's header names onto canonical field names. Each
// header binds to at most one field; for a field with several matching
// headers the first occurrence in file order wins. Headers that match no
// field are reported so the operator can see which columns were ignored.
func MapHeaders(headers []string) (mapping map[string]string, unmapped []string) {
	variantIndex := make(map[string]string)
	for _, f := range Fields() {
		for _, v := range f.variants() {
			if _, taken := variantIndex[v]; !taken {
				variantIndex[v] = f.Canonical
			}
		}
	}

	mapping = make(map[string]string)
	bound := make(map[string]bool)
	for _, header := range headers {
		if header == "" {
			continue
		}
		canonical, ok := variantIndex[headerKey(header)]
		if !ok {
			unmapped = append(unmapped, header)
			continue
		}
		if bound[canonical] {
			continue
		}
		bound[canonical] = true
		mapping[canonical] = header
	}
	return mapping, unmapped
}

// ValidateRow turns one uploaded row into a ParsedRecord. It never returns
// an error: every problem lands in the record's Errors or Warnings, and the
// record is persistable exactly when Errors is empty.
func (v *RecordValidator) ValidateRow(row models.UploadedRow, mapping map[string]string) *models.ParsedRecord {
	record := &models.ParsedRecord{
		RowNumber: row.Number,
		Original:  row.Values,
		Tutor:     &models.TutorData{},
	}

	raw := func(canonical string) string {
		header, ok := mapping[canonical]
		if !ok {
			return ""
		}
		return row.Get(header)
	}

	for _, f := range Fields() {
		value := raw(f.Canonical)
		if value == "" {
			if f.Required {
				record.Errors = append(record.Errors,
					apperrors.ValidationError(apperrors.CodeMissingField, f.Label, "", nil).Error())
			}
			continue
		}
		v.applyField(record, f, value)
	}

	// Resolution and cross-field checks run for invalid rows too: the
	// preview should show what each reference field matched even when the
	// row cannot be imported as-is.
	v.resolveReferences(record, raw)
	v.checkCrossFieldRules(record)

	return record
}

// applyField coerces one non-empty cell into the record. Required fields
// that fail coercion produce errors; optional fields degrade to warnings
// and the value is dropped.
func (v *RecordValidator) applyField(record *models.ParsedRecord, f FieldDef, value string) {
	tutor := record.Tutor

	fail := func(code apperrors.ErrorCode) {
		msg := apperrors.ValidationError(code, f.Label, value, nil).Error()
		if f.Required {
			record.Errors = append(record.Errors, msg)
		} else {
			record.Warnings = append(record.Warnings, msg)
		}
	}

	switch f.Canonical {
	case FieldFullName:
		tutor.FullName = value
	case FieldEmail:
		email, err := coerceEmail(value)
		if err != nil {
			fail(apperrors.CodeInvalidEmail)
			return
		}
		tutor.Email = email
	case FieldPhone:
		phone, err := coercePhone(value)
		if err != nil {
			fail(apperrors.CodeInvalidPhone)
			return
		}
		tutor.Phone = phone
	case FieldNIK:
		if !validNIK(value) {
			record.Warnings = append(record.Warnings,
				fmt.Sprintf("field '%s' is not a 16-digit identity number: %q; stored as given", f.Label, value))
		}
		tutor.NIK = value
	case FieldGender:
		gender := coerceGender(value)
		if gender == models.GenderUnknown {
			record.Warnings = append(record.Warnings,
				fmt.Sprintf("unrecognized gender value %q in field '%s'; left unset", value, f.Label))
			return
		}
		tutor.Gender = gender
	case FieldBirthDate:
		birth, err := coerceDate(value)
		if err != nil {
			fail(apperrors.CodeInvalidDate)
			return
		}
		tutor.BirthDate = &birth
	case FieldProvince:
		tutor.ProvinceText = value
	case FieldCity:
		tutor.CityText = value
	case FieldDomicileAddress:
		tutor.DomicileAddress = value
	case FieldIdentityAddress:
		tutor.IdentityAddress = value
	case FieldBank:
		tutor.BankText = value
	case FieldAccountNumber:
		tutor.AccountNumber = value
	case FieldAccountHolder:
		tutor.AccountHolder = value
	case FieldEducationLevel:
		tutor.EducationLevel = value
	case FieldUniversity:
		tutor.University = value
	case FieldMajor:
		tutor.Major = value
	case FieldGPA:
		gpa, err := coerceNumber(value)
		if err != nil {
			fail(apperrors.CodeInvalidNumber)
			return
		}
		if gpa < 0 || gpa > 4.0 {
			record.Warnings = append(record.Warnings,
				apperrors.ValidationError(apperrors.CodeOutOfRange, f.Label, value, nil).Error())
			return
		}
		tutor.GPA = &gpa
	case FieldHourlyRate:
		rate, err := coerceDecimal(value)
		if err != nil {
			fail(apperrors.CodeInvalidNumber)
			return
		}
		tutor.HourlyRate = &rate
	case FieldExperienceDesc:
		tutor.ExperienceDesc = value
	case FieldTeachingDays:
		tutor.TeachingDays = coerceList(value)
	case FieldTeachesOnline:
		tutor.TeachesOnline = coerceSwitch(value)
	case FieldAcceptingStudents:
		tutor.AcceptingStudents = coerceSwitch(value)
	case FieldSubjects:
		// Resolved in resolveReferences; the raw value is re-read there so
		// token-level outcomes and warnings stay in one place.
	}
}

// resolveReferences runs fuzzy resolution for province, city, bank and the
// subject list. Resolution never invalidates a record: a miss or a
// low-confidence match keeps the free text and adds a warning.
func (v *RecordValidator) resolveReferences(record *models.ParsedRecord, raw func(string) string) {
	tutor := record.Tutor

	if tutor.ProvinceText != "" {
		if id, name, ok := v.resolveOne(record, "Provinsi Domisili", tutor.ProvinceText,
			models.ReferenceProvinces, v.cache.Provinces(), v.config.LocationMinScore); ok {
			tutor.ProvinceID = id
			tutor.ProvinceName = name
		}
	}

	if tutor.CityText != "" {
		// Scope the city search to the resolved province when there is one.
		candidates := v.cache.CitiesInProvince(tutor.ProvinceID)
		if id, name, ok := v.resolveOne(record, "Kota/Kabupaten Domisili", tutor.CityText,
			models.ReferenceCities, candidates, v.config.LocationMinScore); ok {
			tutor.CityID = id
			tutor.CityName = name
		}
	}

	if tutor.BankText != "" {
		if id, name, ok := v.resolveOne(record, "Nama Bank", tutor.BankText,
			models.ReferenceBanks, v.cache.Banks(), v.config.BankMinScore); ok {
			tutor.BankID = id
			tutor.BankName = name
		}
	}

	v.resolveSubjects(record, raw(FieldSubjects))
}

// resolveOne resolves a single free-text value against one reference
// collection. Returns the reference id and canonical name on a confident
// match; otherwise records a warning and reports ok=false so the caller
// keeps the verbatim text.
func (v *RecordValidator) resolveOne(record *models.ParsedRecord, label, input string,
	kind models.ReferenceKind, candidates []models.ReferenceEntity, minScore int) (id, name string, ok bool) {

	if v.cache.Degraded(kind) {
		record.Warnings = append(record.Warnings,
			apperrors.ResolutionError(apperrors.CodeReferenceMissing, label, input, nil).Error())
		return "", "", false
	}

	match, found := bestMatch(v.strategy, input, candidates)
	if !found {
		record.Warnings = append(record.Warnings,
			apperrors.ResolutionError(apperrors.CodeNoMatch, label, input, nil).Error())
		return "", "", false
	}
	if match.Score < minScore {
		record.Warnings = append(record.Warnings,
			fmt.Sprintf("low-confidence match for field '%s': %q resembles %q (score %d, need %d); stored as free text",
				label, input, match.MatchedName, match.Score, minScore))
		return "", "", false
	}

	return match.ReferenceID, match.MatchedName, true
}

// resolveSubjects resolves each token of the delimited subject list
// independently. Unmatched tokens are kept with Matched=false so the
// orchestrator can store them as free-text additional subjects.
func (v *RecordValidator) resolveSubjects(record *models.ParsedRecord, rawValue string) {
	tokens := coerceList(rawValue)
	if len(tokens) == 0 {
		return
	}

	if v.cache.Degraded(models.ReferenceSubjects) {
		record.Warnings = append(record.Warnings,
			apperrors.ResolutionError(apperrors.CodeReferenceMissing, "Program yang Dipilih", rawValue, nil).Error())
		for _, token := range tokens {
			record.Tutor.Subjects = append(record.Tutor.Subjects, models.SubjectResolution{Token: token})
		}
		return
	}

	subjects := v.cache.Subjects()
	for _, token := range tokens {
		resolution := models.SubjectResolution{Token: token}
		if match, found := bestMatch(v.strategy, token, subjects); found && match.Score >= v.config.SubjectMinScore {
			resolution.ReferenceID = match.ReferenceID
			resolution.Name = match.MatchedName
			resolution.Score = match.Score
			resolution.Matched = true
		} else {
			record.Warnings = append(record.Warnings,
				fmt.Sprintf("subject %q did not match any known program; it will be stored as an additional subject", token))
		}
		record.Tutor.Subjects = append(record.Tutor.Subjects, resolution)
	}
}

// checkCrossFieldRules applies the rules that span more than one field.
// All of them produce warnings: the record stays importable.
func (v *RecordValidator) checkCrossFieldRules(record *models.ParsedRecord) {
	tutor := record.Tutor

	if tutor.BirthDate != nil {
		age := ageAt(*tutor.BirthDate, v.now())
		if age < v.config.MinAge || age > v.config.MaxAge {
			record.Warnings = append(record.Warnings,
				fmt.Sprintf("computed age %d is outside the expected %d-%d range", age, v.config.MinAge, v.config.MaxAge))
		}
	}

	if tutor.HourlyRate != nil {
		rate := *tutor.HourlyRate
		if rate.LessThan(v.config.MinHourlyRate) || rate.GreaterThan(v.config.MaxHourlyRate) {
			record.Warnings = append(record.Warnings,
				fmt.Sprintf("hourly rate %s is outside the expected %s-%s band",
					rate.StringFixed(0), v.config.MinHourlyRate.StringFixed(0), v.config.MaxHourlyRate.StringFixed(0)))
		}
	}

	if tutor.AccountNumber != "" && tutor.BankText == "" {
		record.Warnings = append(record.Warnings,
			"account number given without a bank name; banking details are incomplete")
	}
	if tutor.BankText != "" && tutor.AccountNumber == "" {
		record.Warnings = append(record.Warnings,
			"bank name given without an account number; banking details are incomplete")
	}
}

// bestMatch runs the strategy and returns its top-ranked candidate.
func bestMatch(strategy resolver.Strategy, input string, candidates []models.ReferenceEntity) (models.FieldMatch, bool) {
	matches := strategy.Rank(input, candidates)
	if len(matches) == 0 {
		return models.FieldMatch{}, false
	}
	return matches[0], true
}

// ValidateAll validates every row and logs a per-file summary.
func (v *RecordValidator) ValidateAll(rows []models.UploadedRow, headers []string) []*models.ParsedRecord {
	mapping, unmapped := MapHeaders(headers)
	if len(unmapped) > 0 {
		v.logger.WithField("headers", unmapped).Warn("Unrecognized columns ignored")
	}

	records := make([]*models.ParsedRecord, 0, len(rows))
	valid := 0
	for _, row := range rows {
		record := v.ValidateRow(row, mapping)
		if record.IsValid() {
			valid++
		}
		records = append(records, record)
	}

	v.logger.WithFields(logger.Fields{
		"rows":    len(records),
		"valid":   valid,
		"invalid": len(records) - valid,
	}).Info("Validation complete")

	return records
}
