package model

import "time"

// SessionEntry is one persisted key of a browser session (cart record, auth record,
// tokens) when sessions are kept in a SQL database.
type SessionEntry struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	Value     []byte    `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (SessionEntry) TableName() string {
	return "session_entries"
}
