package db

import (
	"time"

	"gorm.io/datatypes"
)

// File is the metadata row for one uploaded payload.
type File struct {
	ID         string         `gorm:"column:id;type:char(36);primaryKey"`
	FileName   string         `gorm:"column:file_name;type:varchar(255);not null"`
	URL        string         `gorm:"column:url;type:varchar(255);not null"`
	UploadDate datatypes.Date `gorm:"column:upload_date;not null"`
}

func (File) TableName() string { return "files" }

// HealthCheck is appended on every successful health probe.
type HealthCheck struct {
	CheckID  uint64    `gorm:"column:check_id;primaryKey;autoIncrement"`
	Datetime time.Time `gorm:"column:datetime;not null;default:CURRENT_TIMESTAMP"`
}

func (HealthCheck) TableName() string { return "healthz_api_checks" }

// Models lists every table managed by schema sync.
func Models() []any {
	return []any{&File{}, &HealthCheck{}}
}

// Today returns the current UTC calendar date.
func Today() datatypes.Date {
	now := time.Now().UTC()
	return datatypes.Date(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
}

// DateString formats d as YYYY-MM-DD.
func DateString(d datatypes.Date) string {
	return time.Time(d).Format(time.DateOnly)
}
