package models

import "time"

// TokenScreenshot represents the token_screenshots table, the durable
// tier of the screenshot cache. One row per (chain, token_id).
type TokenScreenshot struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Chain      string    `gorm:"column:chain;uniqueIndex:idx_token_screenshots_key"`
	TokenID    string    `gorm:"column:token_id;uniqueIndex:idx_token_screenshots_key"`
	UpdateDate time.Time `gorm:"column:update_date"`
	ImageData  []byte    `gorm:"column:image_data"`
}

func (TokenScreenshot) TableName() string {
	return "token_screenshots"
}
