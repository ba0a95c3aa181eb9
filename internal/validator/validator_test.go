package validator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"tutor-import-service/internal/models"
	"tutor-import-service/internal/refdata"
	"tutor-import-service/internal/resolver"
)

type stubLoader struct {
	fail map[models.ReferenceKind]bool
}

func (s stubLoader) load(kind models.ReferenceKind, entities []models.ReferenceEntity) ([]models.ReferenceEntity, error) {
	if s.fail[kind] {
		return nil, fmt.Errorf("%s unavailable", kind)
	}
	return entities, nil
}

func (s stubLoader) LoadProvinces(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.load(models.ReferenceProvinces, []models.ReferenceEntity{
		{ID: "p1", Name: "DKI Jakarta"},
		{ID: "p2", Name: "Jawa Barat"},
	})
}

func (s stubLoader) LoadCities(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.load(models.ReferenceCities, []models.ReferenceEntity{
		{ID: "c1", Name: "Jakarta Selatan", ParentID: "p1"},
		{ID: "c2", Name: "Bandung", ParentID: "p2"},
	})
}

func (s stubLoader) LoadBanks(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.load(models.ReferenceBanks, []models.ReferenceEntity{
		{ID: "b1", Name: "Bank Central Asia", LocalName: "BCA"},
		{ID: "b2", Name: "Bank Mandiri"},
	})
}

func (s stubLoader) LoadSubjects(ctx context.Context) ([]models.ReferenceEntity, error) {
	return s.load(models.ReferenceSubjects, []models.ReferenceEntity{
		{ID: "s1", Name: "Matematika"},
		{ID: "s2", Name: "Fisika"},
		{ID: "s3", Name: "Bahasa Inggris"},
	})
}

func newTestValidator(t *testing.T, fail ...models.ReferenceKind) *RecordValidator {
	t.Helper()

	failMap := make(map[models.ReferenceKind]bool)
	for _, kind := range fail {
		failMap[kind] = true
	}

	cache := refdata.Load(context.Background(), stubLoader{fail: failMap})
	v := New(cache, resolver.New(), DefaultConfig())
	v.now = func() time.Time {
		return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	}
	return v
}

func fullMapping() map[string]string {
	mapping := make(map[string]string)
	for _, f := range Fields() {
		mapping[f.Canonical] = f.Label
	}
	return mapping
}

func row(number int, values map[string]string) models.UploadedRow {
	return models.UploadedRow{Number: number, Values: values}
}

func goodRow() map[string]string {
	return map[string]string{
		"Nama Lengkap":            "Budi Santoso",
		"Email Aktif":             "Budi.Santoso@Example.com",
		"No. HP (WhatsApp)":       "081234567890",
		"Jenis Kelamin":           "L",
		"Tanggal Lahir":           "15/03/1990",
		"Provinsi Domisili":       "DKI Jakarta",
		"Kota/Kabupaten Domisili": "Jakarta Selatan",
		"Nama Bank":               "BCA",
		"Nomor Rekening":          "1234567890",
		"IPK":                     "3,45",
		"Tarif per Jam":           "Rp 75.000",
		"Program yang Dipilih":    "Matematika; Fisika",
		"Hari Mengajar":           "Senin; Rabu",
		"Bisa Mengajar Online":    "Ya",
		"Status Menerima Siswa":   "aktif",
	}
}

func TestValidateRowComplete(t *testing.T) {
	v := newTestValidator(t)

	record := v.ValidateRow(row(1, goodRow()), fullMapping())

	if !record.IsValid() {
		t.Fatalf("expected valid record, got errors: %v", record.Errors)
	}

	tutor := record.Tutor
	if tutor.Email != "budi.santoso@example.com" {
		t.Errorf("email = %q, want lowercased", tutor.Email)
	}
	if tutor.Phone != "6281234567890" {
		t.Errorf("phone = %q, want 6281234567890", tutor.Phone)
	}
	if tutor.Gender != models.GenderMale {
		t.Errorf("gender = %q, want male", tutor.Gender)
	}
	if tutor.BirthDate == nil || tutor.BirthDate.Format("2006-01-02") != "1990-03-15" {
		t.Errorf("birth date = %v, want 1990-03-15 (day-first)", tutor.BirthDate)
	}
	if tutor.ProvinceID != "p1" {
		t.Errorf("province id = %q, want p1", tutor.ProvinceID)
	}
	if tutor.CityID != "c1" {
		t.Errorf("city id = %q, want c1", tutor.CityID)
	}
	if tutor.BankID != "b1" {
		t.Errorf("bank id = %q, want b1 (short code match)", tutor.BankID)
	}
	if tutor.GPA == nil || *tutor.GPA != 3.45 {
		t.Errorf("gpa = %v, want 3.45 (decimal comma)", tutor.GPA)
	}
	if tutor.HourlyRate == nil || tutor.HourlyRate.String() != "75000" {
		t.Errorf("hourly rate = %v, want 75000", tutor.HourlyRate)
	}
	if len(tutor.Subjects) != 2 || !tutor.Subjects[0].Matched || !tutor.Subjects[1].Matched {
		t.Errorf("subjects = %+v, want both matched", tutor.Subjects)
	}
	if !tutor.TeachesOnline || !tutor.AcceptingStudents {
		t.Error("switch fields should both be true")
	}
	if len(tutor.TeachingDays) != 2 {
		t.Errorf("teaching days = %v, want 2 entries", tutor.TeachingDays)
	}
}

func TestValidateRowMissingRequired(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	delete(values, "Email Aktif")
	record := v.ValidateRow(row(3, values), fullMapping())

	if record.IsValid() {
		t.Fatal("record without email must be invalid")
	}
	if len(record.Errors) != 1 {
		t.Errorf("errors = %v, want exactly one", record.Errors)
	}
	if !strings.Contains(record.Errors[0], "Email Aktif") {
		t.Errorf("error should name the missing field: %q", record.Errors[0])
	}
	if record.RowNumber != 3 {
		t.Errorf("row number = %d, want 3", record.RowNumber)
	}
}

func TestValidateRowInvalidRequiredFormat(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name  string
		field string
		value string
	}{
		{"bad email", "Email Aktif", "not-an-email"},
		{"bad phone", "No. HP (WhatsApp)", "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := goodRow()
			values[tt.field] = tt.value
			record := v.ValidateRow(row(1, values), fullMapping())
			if record.IsValid() {
				t.Errorf("record with %s should be invalid", tt.name)
			}
		})
	}
}

func TestValidateRowOptionalCoercionDegrades(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	values["Tanggal Lahir"] = "not a date"
	values["IPK"] = "4.9"
	record := v.ValidateRow(row(1, values), fullMapping())

	if !record.IsValid() {
		t.Fatalf("optional coercion failures must not invalidate the row: %v", record.Errors)
	}
	if record.Tutor.BirthDate != nil {
		t.Error("unparseable birth date should be dropped")
	}
	if record.Tutor.GPA != nil {
		t.Error("out-of-range GPA should be dropped")
	}
	if len(record.Warnings) < 2 {
		t.Errorf("warnings = %v, want at least 2", record.Warnings)
	}
}

func TestValidateRowIsValidMatchesErrors(t *testing.T) {
	v := newTestValidator(t)

	valid := v.ValidateRow(row(1, goodRow()), fullMapping())
	if valid.IsValid() != (len(valid.Errors) == 0) {
		t.Error("IsValid must mirror the error list")
	}

	bad := goodRow()
	delete(bad, "Nama Lengkap")
	invalid := v.ValidateRow(row(2, bad), fullMapping())
	if invalid.IsValid() != (len(invalid.Errors) == 0) {
		t.Error("IsValid must mirror the error list")
	}
}

func TestValidateRowUnmatchedReferenceKeepsText(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	values["Nama Bank"] = "Bank Antariksa Nusantara"
	record := v.ValidateRow(row(1, values), fullMapping())

	if !record.IsValid() {
		t.Fatalf("unmatched bank must not invalidate the row: %v", record.Errors)
	}
	if record.Tutor.BankID != "" {
		t.Errorf("bank id = %q, want empty for a failed match", record.Tutor.BankID)
	}
	if record.Tutor.BankText != "Bank Antariksa Nusantara" {
		t.Errorf("bank text = %q, want verbatim input", record.Tutor.BankText)
	}
	if len(record.Warnings) == 0 {
		t.Error("expected a resolution warning")
	}
}

func TestValidateRowSubjectPartialMatch(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	values["Program yang Dipilih"] = "Matematika; Tari Tradisional"
	record := v.ValidateRow(row(1, values), fullMapping())

	if !record.IsValid() {
		t.Fatalf("partial subject match must not invalidate the row: %v", record.Errors)
	}
	subjects := record.Tutor.Subjects
	if len(subjects) != 2 {
		t.Fatalf("subjects = %d, want 2", len(subjects))
	}
	if !subjects[0].Matched || subjects[0].ReferenceID != "s1" {
		t.Errorf("first subject = %+v, want matched s1", subjects[0])
	}
	if subjects[1].Matched {
		t.Errorf("second subject = %+v, want unmatched", subjects[1])
	}
	if subjects[1].Token != "Tari Tradisional" {
		t.Errorf("unmatched token = %q, want verbatim", subjects[1].Token)
	}

	found := false
	for _, w := range record.Warnings {
		if strings.Contains(w, "Tari Tradisional") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings should mention the unmatched subject: %v", record.Warnings)
	}
}

// An invalid row still gets its reference fields resolved so the preview
// can show what matched while the operator fixes the blocking problem.
func TestValidateRowInvalidStillResolvesReferences(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	values["Email Aktif"] = "not-an-email"
	record := v.ValidateRow(row(1, values), fullMapping())

	if record.IsValid() {
		t.Fatal("record with a bad email must be invalid")
	}
	if record.Tutor.ProvinceID != "p1" {
		t.Errorf("province id = %q, want p1 resolved despite the email error", record.Tutor.ProvinceID)
	}
	if record.Tutor.BankID != "b1" {
		t.Errorf("bank id = %q, want b1 resolved despite the email error", record.Tutor.BankID)
	}
	if len(record.Tutor.Subjects) != 2 {
		t.Errorf("subjects = %+v, want both tokens resolved", record.Tutor.Subjects)
	}
}

func TestValidateRowCityScopedToProvince(t *testing.T) {
	v := newTestValidator(t)

	// Bandung belongs to Jawa Barat; with the province resolved to DKI
	// Jakarta, the scoped city search must not find it.
	values := goodRow()
	values["Provinsi Domisili"] = "DKI Jakarta"
	values["Kota/Kabupaten Domisili"] = "Bandung"
	record := v.ValidateRow(row(1, values), fullMapping())

	if record.Tutor.CityID != "" {
		t.Errorf("city id = %q, want empty (city outside resolved province)", record.Tutor.CityID)
	}
	if record.Tutor.CityText != "Bandung" {
		t.Errorf("city text = %q, want verbatim", record.Tutor.CityText)
	}
}

func TestValidateRowDegradedReferenceData(t *testing.T) {
	v := newTestValidator(t, models.ReferenceBanks)

	record := v.ValidateRow(row(1, goodRow()), fullMapping())

	if !record.IsValid() {
		t.Fatalf("degraded reference data must not invalidate rows: %v", record.Errors)
	}
	if record.Tutor.BankID != "" {
		t.Error("bank must not resolve when the collection is degraded")
	}
	if record.Tutor.ProvinceID != "p1" {
		t.Error("healthy collections should still resolve")
	}
}

func TestValidateRowAgeWarning(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	values["Tanggal Lahir"] = "15/03/2015"
	record := v.ValidateRow(row(1, values), fullMapping())

	if !record.IsValid() {
		t.Fatalf("age warning must not invalidate: %v", record.Errors)
	}
	found := false
	for _, w := range record.Warnings {
		if strings.Contains(w, "age") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an age warning, got %v", record.Warnings)
	}
}

func TestValidateRowRateBandWarning(t *testing.T) {
	v := newTestValidator(t)

	values := goodRow()
	values["Tarif per Jam"] = "5000"
	record := v.ValidateRow(row(1, values), fullMapping())

	if !record.IsValid() {
		t.Fatalf("rate warning must not invalidate: %v", record.Errors)
	}
	found := false
	for _, w := range record.Warnings {
		if strings.Contains(w, "hourly rate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a rate band warning, got %v", record.Warnings)
	}
}

func TestMapHeaders(t *testing.T) {
	headers := []string{"Nama Lengkap", "email", "No HP", "Kolom Misterius", "nama"}
	mapping, unmapped := MapHeaders(headers)

	if got := mapping[FieldFullName]; got != "Nama Lengkap" {
		t.Errorf("full_name mapped to %q, want the label (first match wins)", got)
	}
	if got := mapping[FieldEmail]; got != "email" {
		t.Errorf("email mapped to %q, want the alias header", got)
	}
	if got := mapping[FieldPhone]; got != "No HP" {
		t.Errorf("phone mapped to %q", got)
	}
	if len(unmapped) != 1 || unmapped[0] != "Kolom Misterius" {
		t.Errorf("unmapped = %v, want [Kolom Misterius]", unmapped)
	}
}

func TestValidateAll(t *testing.T) {
	v := newTestValidator(t)

	labels := []string{"Nama Lengkap", "Email Aktif", "No. HP (WhatsApp)"}
	rows := []models.UploadedRow{
		row(1, map[string]string{
			"Nama Lengkap":      "Budi",
			"Email Aktif":       "budi@example.com",
			"No. HP (WhatsApp)": "081234567890",
		}),
		row(2, map[string]string{
			"Nama Lengkap":      "Siti",
			"Email Aktif":       "",
			"No. HP (WhatsApp)": "081234567891",
		}),
	}

	records := v.ValidateAll(rows, labels)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].IsValid() {
		t.Errorf("row 1 should be valid: %v", records[0].Errors)
	}
	if records[1].IsValid() {
		t.Error("row 2 lacks an email and should be invalid")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.SubjectMinScore = 150
	if err := bad.Validate(); err == nil {
		t.Error("score above 100 should be rejected")
	}

	swapped := DefaultConfig()
	swapped.MinAge = 80
	if err := swapped.Validate(); err == nil {
		t.Error("min age above max age should be rejected")
	}
}
