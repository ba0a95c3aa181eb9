// Package validator transforms raw upload rows into validated, type-coerced
// ParsedRecords, resolving free-text reference fields (province, city, bank,
// subjects) through the fuzzy resolver along the way.
package validator

import (
	"strings"
)

// FieldType declares how a raw cell value is coerced.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeEmail   FieldType = "email"
	TypePhone   FieldType = "phone"
	TypeNumber  FieldType = "number"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeGender  FieldType = "gender"
	TypeList    FieldType = "list"
	TypeSwitch  FieldType = "switch"
)

// FieldDef declares one canonical import field: its spreadsheet label, the
// header aliases accepted for it, how its value is coerced, and whether a
// row without it is invalid. The same table drives field mapping,
// validation, and the downloadable CSV template, so the three can never
// drift apart.
type FieldDef struct {
	Canonical string
	Label     string
	Aliases   []string
	Type      FieldType
	Required  bool
	Example   string
}

// Canonical field names used throughout the pipeline.
const (
	FieldFullName          = "full_name"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldNIK               = "nik"
	FieldGender            = "gender"
	FieldBirthDate         = "birth_date"
	FieldProvince          = "province"
	FieldCity              = "city"
	FieldDomicileAddress   = "domicile_address"
	FieldIdentityAddress   = "identity_address"
	FieldBank              = "bank"
	FieldAccountNumber     = "account_number"
	FieldAccountHolder     = "account_holder"
	FieldEducationLevel    = "education_level"
	FieldUniversity        = "university"
	FieldMajor             = "major"
	FieldGPA               = "gpa"
	FieldHourlyRate        = "hourly_rate"
	FieldExperienceDesc    = "experience_desc"
	FieldSubjects          = "subjects"
	FieldTeachingDays      = "teaching_days"
	FieldTeachesOnline     = "teaches_online"
	FieldAcceptingStudents = "accepting_students"
)

// Fields returns the canonical field table in template column order.
func Fields() []FieldDef {
	return []FieldDef{
		{
			Canonical: FieldFullName,
			Label:     "Nama Lengkap",
			Aliases:   []string{"nama", "name", "full name"},
			Type:      TypeText,
			Required:  true,
			Example:   "Budi Santoso",
		},
		{
			Canonical: FieldEmail,
			Label:     "Email Aktif",
			Aliases:   []string{"email", "alamat email", "e-mail"},
			Type:      TypeEmail,
			Required:  true,
			Example:   "budi.santoso@example.com",
		},
		{
			Canonical: FieldPhone,
			Label:     "No. HP (WhatsApp)",
			Aliases:   []string{"no hp", "nomor hp", "no telepon", "telepon", "phone", "whatsapp", "no wa"},
			Type:      TypePhone,
			Required:  true,
			Example:   "081234567890",
		},
		{
			Canonical: FieldNIK,
			Label:     "NIK",
			Aliases:   []string{"no ktp", "nomor ktp", "nik ktp"},
			Type:      TypeText,
			Example:   "3171234567890001",
		},
		{
			Canonical: FieldGender,
			Label:     "Jenis Kelamin",
			Aliases:   []string{"gender", "kelamin"},
			Type:      TypeGender,
			Example:   "Laki-laki",
		},
		{
			Canonical: FieldBirthDate,
			Label:     "Tanggal Lahir",
			Aliases:   []string{"tgl lahir", "tanggal lahir", "birth date", "dob"},
			Type:      TypeDate,
			Example:   "15/03/1990",
		},
		{
			Canonical: FieldProvince,
			Label:     "Provinsi Domisili",
			Aliases:   []string{"provinsi", "province"},
			Type:      TypeText,
			Example:   "DKI Jakarta",
		},
		{
			Canonical: FieldCity,
			Label:     "Kota/Kabupaten Domisili",
			Aliases:   []string{"kota", "kabupaten", "kota kabupaten", "city"},
			Type:      TypeText,
			Example:   "Jakarta Selatan",
		},
		{
			Canonical: FieldDomicileAddress,
			Label:     "Alamat Lengkap Domisili",
			Aliases:   []string{"alamat domisili", "alamat", "address"},
			Type:      TypeText,
			Example:   "Jl. Merdeka No. 10, RT 01/RW 02",
		},
		{
			Canonical: FieldIdentityAddress,
			Label:     "Alamat Sesuai KTP",
			Aliases:   []string{"alamat ktp"},
			Type:      TypeText,
			Example:   "Jl. Merdeka No. 10, RT 01/RW 02",
		},
		{
			Canonical: FieldBank,
			Label:     "Nama Bank",
			Aliases:   []string{"bank"},
			Type:      TypeText,
			Example:   "BCA",
		},
		{
			Canonical: FieldAccountNumber,
			Label:     "Nomor Rekening",
			Aliases:   []string{"no rekening", "no rek", "rekening"},
			Type:      TypeText,
			Example:   "1234567890",
		},
		{
			Canonical: FieldAccountHolder,
			Label:     "Nama Pemilik Rekening",
			Aliases:   []string{"pemilik rekening", "atas nama"},
			Type:      TypeText,
			Example:   "Budi Santoso",
		},
		{
			Canonical: FieldEducationLevel,
			Label:     "Pendidikan Terakhir",
			Aliases:   []string{"pendidikan", "jenjang pendidikan"},
			Type:      TypeText,
			Example:   "S1",
		},
		{
			Canonical: FieldUniversity,
			Label:     "Universitas",
			Aliases:   []string{"asal universitas", "kampus", "university"},
			Type:      TypeText,
			Example:   "Universitas Indonesia",
		},
		{
			Canonical: FieldMajor,
			Label:     "Jurusan",
			Aliases:   []string{"program studi", "prodi", "major"},
			Type:      TypeText,
			Example:   "Pendidikan Matematika",
		},
		{
			Canonical: FieldGPA,
			Label:     "IPK",
			Aliases:   []string{"gpa", "nilai ipk"},
			Type:      TypeNumber,
			Example:   "3.45",
		},
		{
			Canonical: FieldHourlyRate,
			Label:     "Tarif per Jam",
			Aliases:   []string{"tarif", "rate", "tarif per jam (rp)", "honor per jam"},
			Type:      TypeDecimal,
			Example:   "75000",
		},
		{
			Canonical: FieldExperienceDesc,
			Label:     "Deskripsi Pengalaman",
			Aliases:   []string{"pengalaman", "pengalaman mengajar", "experience"},
			Type:      TypeText,
			Example:   "3 tahun mengajar matematika SMP dan SMA",
		},
		{
			Canonical: FieldSubjects,
			Label:     "Program yang Dipilih",
			Aliases:   []string{"program", "mata pelajaran", "mapel", "subjects"},
			Type:      TypeList,
			Example:   "Matematika; Fisika",
		},
		{
			Canonical: FieldTeachingDays,
			Label:     "Hari Mengajar",
			Aliases:   []string{"hari tersedia", "jadwal mengajar"},
			Type:      TypeList,
			Example:   "Senin; Rabu; Jumat",
		},
		{
			Canonical: FieldTeachesOnline,
			Label:     "Bisa Mengajar Online",
			Aliases:   []string{"mengajar online", "online"},
			Type:      TypeSwitch,
			Example:   "Ya",
		},
		{
			Canonical: FieldAcceptingStudents,
			Label:     "Status Menerima Siswa",
			Aliases:   []string{"menerima siswa", "status aktif"},
			Type:      TypeSwitch,
			Example:   "Ya",
		},
	}
}

// headerKey normalizes a header name for alias comparison: lowercased with
// punctuation removed and whitespace collapsed.
func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// variants returns the ordered list of header keys accepted for a field:
// the exact label first, then declared aliases, then mechanical variants
// (snake_case, space-stripped). First match wins during mapping.
func (f FieldDef) variants() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		key := headerKey(s)
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}

	add(f.Label)
	for _, alias := range f.Aliases {
		add(alias)
	}
	add(strings.ReplaceAll(headerKey(f.Label), " ", "_"))
	add(strings.ReplaceAll(headerKey(f.Label), " ", ""))
	add(f.Canonical)
	add(strings.ReplaceAll(f.Canonical, "_", " "))

	return out
}

// TemplateRows returns the three rows of the downloadable CSV template:
// headers, required/optional markers, and one example row. Generated from
// the same field table the validator maps against.
func TemplateRows() [][]string {
	fields := Fields()

	headers := make([]string, len(fields))
	markers := make([]string, len(fields))
	example := make([]string, len(fields))

	for i, f := range fields {
		headers[i] = f.Label
		if f.Required {
			markers[i] = "wajib"
		} else {
			markers[i] = "opsional"
		}
		example[i] = f.Example
	}

	return [][]string{headers, markers, example}
}
