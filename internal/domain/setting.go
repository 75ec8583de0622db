package domain

import "time"

// Setting is a persisted key-value preference
type Setting struct {
	ID          int64     `json:"-" gorm:"column:id;primaryKey;autoIncrement"`
	Key         string    `json:"key" gorm:"column:key;uniqueIndex;not null"`
	Value       string    `json:"value" gorm:"column:value"`
	Description string    `json:"description,omitempty" gorm:"column:description"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Setting) TableName() string {
	return "settings"
}

// Setting keys seeded by the schema
const (
	SettingDefaultDownloadPath = "default_download_path"
	SettingDefaultResolution   = "default_resolution"
	SettingAutoOpenFolder      = "auto_open_folder"
	SettingTheme               = "theme"
)

// DefaultSettings returns the preferences seeded on first start
func DefaultSettings() []Setting {
	return []Setting{
		{Key: SettingDefaultDownloadPath, Value: "", Description: "Default directory for downloads"},
		{Key: SettingDefaultResolution, Value: "1080p", Description: "Default resolution for downloads"},
		{Key: SettingAutoOpenFolder, Value: "false", Description: "Open folder after download"},
		{Key: SettingTheme, Value: "light", Description: "Interface theme"},
	}
}

// SchemaVersion is one applied migration in the append-only version log
type SchemaVersion struct {
	ID          int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	Version     int       `json:"version" gorm:"column:version;not null"`
	AppliedAt   time.Time `json:"applied_at" gorm:"column:applied_at"`
	Description string    `json:"description" gorm:"column:description"`
}

// TableName specifies the table name for GORM
func (SchemaVersion) TableName() string {
	return "schema_version"
}
