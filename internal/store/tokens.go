package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/models"
)

// Tokens records which chain a token address resolved on.
type Tokens struct {
	db *gorm.DB
}

func NewTokens(db *gorm.DB) *Tokens {
	return &Tokens{db: db}
}

// Add stores a (chain, token) pair unless it is already recorded.
func (t *Tokens) Add(chain, token string) error {
	var existing models.SuccessfulToken
	result := t.db.Where("chain = ? AND token_id = ?", chain, token).First(&existing)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("querying successful token: %w", result.Error)
	}
	return t.db.Create(&models.SuccessfulToken{Chain: chain, TokenID: token}).Error
}

// Find returns the recorded chain for a token address. Address matching is
// case-insensitive: addresses are compared as ILIKE even though they are
// stored with their original casing.
func (t *Tokens) Find(token string) (chain string, ok bool, err error) {
	var row models.SuccessfulToken
	result := t.db.Where("token_id ILIKE ?", token).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("querying successful token: %w", result.Error)
	}
	return row.Chain, true, nil
}

// All returns every recorded (chain, token) pair.
func (t *Tokens) All() ([]models.SuccessfulToken, error) {
	var rows []models.SuccessfulToken
	if err := t.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing successful tokens: %w", err)
	}
	return rows, nil
}
