package core

import (
	"regexp"
	"time"
)

// DateLayout is the on-disk and wire format for every calendar date.
const DateLayout = "2006-01-02"

const (
	ChildActive   = "active"
	ChildInactive = "inactive"
)

const (
	AttendancePresent  = "present"
	AttendanceAbsent   = "absent"
	AttendanceLate     = "late"
	AttendanceSick     = "sick"
	AttendanceVacation = "vacation"
)

// AttendanceStatuses is the closed set accepted for attendance records.
var AttendanceStatuses = []string{
	AttendancePresent,
	AttendanceAbsent,
	AttendanceLate,
	AttendanceSick,
	AttendanceVacation,
}

type (
	Child struct {
		ID               int64   `db:"id" json:"id"`
		FirstName        string  `db:"first_name" json:"first_name"`
		LastName         string  `db:"last_name" json:"last_name"`
		DOB              *string `db:"dob" json:"dob"`
		ParentID         *int64  `db:"parent_id" json:"parent_id"`
		EmergencyContact *string `db:"emergency_contact" json:"emergency_contact"`
		Allergies        *string `db:"allergies" json:"allergies"`
		Notes            *string `db:"notes" json:"notes"`
		Status           string  `db:"status" json:"status"`
	}

	Parent struct {
		ID      int64   `db:"id" json:"id"`
		Name    string  `db:"name" json:"name"`
		Phone   *string `db:"phone" json:"phone"`
		Email   *string `db:"email" json:"email"`
		Address *string `db:"address" json:"address"`
	}

	Income struct {
		ID              int64   `db:"id" json:"id"`
		Date            string  `db:"date" json:"date"`
		Source          string  `db:"source" json:"source"`
		Amount          float64 `db:"amount" json:"amount"`
		RelatedChildID  *int64  `db:"related_child_id" json:"related_child_id"`
		RelatedParentID *int64  `db:"related_parent_id" json:"related_parent_id"`
		Description     *string `db:"description" json:"description"`
		BCMonth         *string `db:"bc_month" json:"bc_month"`
		// Name of the related child, filled by joined reads.
		ChildFirstName *string `db:"child_first_name" json:"first_name,omitempty"`
		ChildLastName  *string `db:"child_last_name" json:"last_name,omitempty"`
	}

	Expense struct {
		ID              int64   `db:"id" json:"id"`
		Date            string  `db:"date" json:"date"`
		Category        string  `db:"category" json:"category"`
		Amount          float64 `db:"amount" json:"amount"`
		Vendor          *string `db:"vendor" json:"vendor"`
		Description     *string `db:"description" json:"description"`
		ReceiptFilename *string `db:"receipt_filename" json:"receipt_filename"`
		IsPersonal      bool    `db:"is_personal" json:"is_personal"`
	}

	// AttendanceRecord is one child's status on a given date.
	AttendanceRecord struct {
		ChildID int64   `db:"child_id" json:"child_id"`
		Status  string  `db:"status" json:"status"`
		Notes   *string `db:"notes" json:"notes"`
	}

	Document struct {
		ID          int64   `db:"id" json:"id"`
		Type        string  `db:"type" json:"type"`
		Description *string `db:"description" json:"description"`
		UploadDate  string  `db:"upload_date" json:"upload_date"`
		Filename    string  `db:"filename" json:"filename"`
	}

	Setting struct {
		Key   string `db:"key" json:"key"`
		Value string `db:"value" json:"value"`
	}
)

// DefaultSettings are seeded on startup without overwriting existing values.
var DefaultSettings = []Setting{
	{Key: "daycare_name", Value: ""},
	{Key: "daycare_type", Value: "rsge"},
	{Key: "home_usage", Value: "80"},
	{Key: "car_usage", Value: "20"},
	{Key: "neq_number", Value: ""},
	{Key: "insurance_policy_number", Value: ""},
	{Key: "insurance_expiry_date", Value: ""},
}

var settingKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidSettingKey reports whether key is made only of letters, digits and underscores.
func ValidSettingKey(key string) bool {
	return settingKeyPattern.MatchString(key)
}

// ValidAttendanceStatus reports whether status belongs to AttendanceStatuses.
func ValidAttendanceStatus(status string) bool {
	for _, s := range AttendanceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ValidChildStatus reports whether status is active or inactive.
func ValidChildStatus(status string) bool {
	return status == ChildActive || status == ChildInactive
}

// ValidDate reports whether s is a real calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// MonthWindow returns the first and last day of the month containing t.
func MonthWindow(t time.Time) (from, to string) {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location())
	return first.Format(DateLayout), last.Format(DateLayout)
}

// StringPtr returns nil for blank strings, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
