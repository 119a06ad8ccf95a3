package models

// Setting key-value store for dashboard preferences.
type Setting struct {
	Key       string `gorm:"primarykey" json:"key"`
	ValueJSON JSON   `gorm:"type:json" json:"value"`
}

// TableName overrides the table name.
func (Setting) TableName() string {
	return "settings"
}
