package models

// SuccessfulToken represents the successful_tokens table: chains on which
// a token address is known to resolve, used to skip the chain scan.
type SuccessfulToken struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Chain   string `gorm:"column:chain"`
	TokenID string `gorm:"column:token_id"`
}

func (SuccessfulToken) TableName() string {
	return "successful_tokens"
}
