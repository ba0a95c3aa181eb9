// Package models defines the core data types shared by the tutor import
// pipeline: raw uploaded rows, reference entities used for fuzzy resolution,
// validated per-row records, and the persisted tutor entity graph.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UploadedRow is one physical data row from an uploaded file, keyed by the
// trimmed header names. Number is the 1-based position of the row within the
// data section of the file (excluding the header row).
type UploadedRow struct {
	Number int
	Values map[string]string
}

// Get returns the trimmed value for a header, or "" when absent.
func (r UploadedRow) Get(header string) string {
	return strings.TrimSpace(r.Values[header])
}

// ReferenceKind identifies one of the four lookup collections that free-text
// input is resolved against.
type ReferenceKind string

const (
	ReferenceProvinces ReferenceKind = "provinces"
	ReferenceCities    ReferenceKind = "cities"
	ReferenceBanks     ReferenceKind = "banks"
	ReferenceSubjects  ReferenceKind = "subjects"
)

// ReferenceEntity is a canonical lookup record. LocalName carries an
// alternate spelling (a bank's short code, a city's colloquial name) and
// ParentID links a city to its owning province.
type ReferenceEntity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LocalName string `json:"local_name,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
}

// FieldMatch is the result of resolving one free-text value against a
// reference collection. Score is a 0-100 similarity; Distance is the edit
// distance used for deterministic tie-breaking.
type FieldMatch struct {
	ReferenceID string `json:"reference_id"`
	MatchedName string `json:"matched_name"`
	Score       int    `json:"score"`
	Distance    int    `json:"distance"`
}

// SubjectResolution captures the per-token outcome of resolving a delimited
// subject/program list. Unmatched tokens are kept so they can be stored as
// free-text additional subjects.
type SubjectResolution struct {
	Token       string `json:"token"`
	ReferenceID string `json:"reference_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Score       int    `json:"score,omitempty"`
	Matched     bool   `json:"matched"`
}

// AddressType distinguishes the two address records a tutor may carry.
type AddressType string

const (
	AddressDomicile AddressType = "domicile"
	AddressIdentity AddressType = "identity"
)

// Gender values accepted by the importer.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = ""
)

// TutorData holds the canonical, type-coerced values of one upload row,
// including resolved reference ids. The resolved display names are kept
// alongside the ids so the preview can show what a free-text value matched.
type TutorData struct {
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	NIK       string     `json:"nik,omitempty"`
	Gender    Gender     `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`

	ProvinceText string `json:"province_text,omitempty"`
	ProvinceID   string `json:"province_id,omitempty"`
	ProvinceName string `json:"province_name,omitempty"`
	CityText     string `json:"city_text,omitempty"`
	CityID       string `json:"city_id,omitempty"`
	CityName     string `json:"city_name,omitempty"`

	DomicileAddress string `json:"domicile_address,omitempty"`
	IdentityAddress string `json:"identity_address,omitempty"`

	BankText      string `json:"bank_text,omitempty"`
	BankID        string `json:"bank_id,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`

	EducationLevel string           `json:"education_level,omitempty"`
	University     string           `json:"university,omitempty"`
	Major          string           `json:"major,omitempty"`
	GPA            *float64         `json:"gpa,omitempty"`
	HourlyRate     *decimal.Decimal `json:"hourly_rate,omitempty"`
	ExperienceDesc string           `json:"experience_desc,omitempty"`

	Subjects []SubjectResolution `json:"subjects,omitempty"`

	TeachingDays      []string `json:"teaching_days,omitempty"`
	TeachesOnline     bool     `json:"teaches_online"`
	AcceptingStudents bool     `json:"accepting_students"`
}

// ParsedRecord is the validated, coerced, reference-resolved representation
// of one input row. It is created once during validation and never mutated
// afterwards. A record is valid exactly when it carries no errors.
type ParsedRecord struct {
	RowNumber int               `json:"row_number"`
	Original  map[string]string `json:"original_fields"`
	Tutor     *TutorData        `json:"mapped_fields"`
	Errors    []string          `json:"errors"`
	Warnings  []string          `json:"warnings"`
}

// IsValid reports whether the record can be persisted. The verdict derives
// from the error list, so the two can never disagree.
func (r *ParsedRecord) IsValid() bool {
	return len(r.Errors) == 0
}

// RowMessage attaches a message to its source row number so operators can
// cross-reference back to the uploaded file.
type RowMessage struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (m RowMessage) String() string {
	return fmt.Sprintf("row %d: %s", m.Row, m.Message)
}

// Persisted entity graph records. Every non-identity record references its
// owning identity; the orchestrator creates the identity first and fans its
// generated id out to the dependents.

// Identity is the root record of a tutor's entity graph.
type Identity struct {
	ID       string
	Code     string
	Email    string
	FullName string
	Phone    string
}

// Profile carries the tutor's public-facing profile data.
type Profile struct {
	IdentityID     string
	ExperienceDesc string
	HourlyRate     *decimal.Decimal
}

// Demographics carries personal attributes split off the identity record.
type Demographics struct {
	IdentityID string
	NIK        string
	Gender     Gender
	BirthDate  *time.Time
}

// Address is one of the tutor's typed address records.
type Address struct {
	IdentityID   string
	Type         AddressType
	ProvinceID   string
	ProvinceText string
	CityID       string
	CityText     string
	Street       string
}

// BankingInfo carries payout account details.
type BankingInfo struct {
	IdentityID    string
	BankID        string
	BankText      string
	AccountNumber string
	AccountHolder string
}

// AcademicDetail carries education and professional background.
type AcademicDetail struct {
	IdentityID     string
	EducationLevel string
	University     string
	Major          string
	GPA            *float64
}

// ProgramAssociation links a tutor to a resolved subject/program.
type ProgramAssociation struct {
	IdentityID string
	SubjectID  string
}

// AdditionalSubject stores a subject token that resolved to nothing, kept
// verbatim rather than dropped.
type AdditionalSubject struct {
	IdentityID string
	Name       string
}

// AvailabilityConfig carries the tutor's teaching availability.
type AvailabilityConfig struct {
	IdentityID        string
	TeachingDays      []string
	TeachesOnline     bool
	AcceptingStudents bool
}

// RowOutcome is the orchestrator's per-row persistence result.
type RowOutcome struct {
	Row        int          `json:"row"`
	IdentityID string       `json:"identity_id,omitempty"`
	Success    bool         `json:"success"`
	Partial    bool         `json:"partial"`
	Errors     []RowMessage `json:"errors,omitempty"`
	Warnings   []RowMessage `json:"warnings,omitempty"`
}
