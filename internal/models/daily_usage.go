package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DailyUsage tracks free-tier consumption per (account, chat) per UTC day.
// Per-tool counts live in a JSON map; a new date key is the daily reset, rows
// are never deleted.
type DailyUsage struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	AccountID     uint `gorm:"not null;uniqueIndex:uq_daily_usage,priority:1"`
	ChatAccountID uint `gorm:"not null;uniqueIndex:uq_daily_usage,priority:2"`

	// UTC day, formatted as 2006-01-02.
	UsageDate string `gorm:"type:date;not null;uniqueIndex:uq_daily_usage,priority:3;index"`

	// Per-tool usage counts: {"web_search": 3, "image_generate": 1}
	Usage datatypes.JSONMap `gorm:"not null"`
}

// TableName pins the table name; the conflict-update expression in the usage
// service references it qualified.
func (DailyUsage) TableName() string {
	return "daily_usage"
}

// GetUsage returns the count for one tool. JSONMap decodes numbers as
// json.Number; int and float64 cover values set in code before a round trip.
func (d *DailyUsage) GetUsage(toolName string) int {
	v, ok := d.Usage[toolName]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case float64:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// UsageDay formats a time as a daily_usage date key.
func UsageDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
