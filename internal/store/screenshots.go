package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Atlas-Projects/BubbleMapsBot/internal/models"
)

// Screenshots is the durable screenshot tier, one row per (chain, token).
type Screenshots struct {
	db *gorm.DB
}

func NewScreenshots(db *gorm.DB) *Screenshots {
	return &Screenshots{db: db}
}

// Get returns the stored image and its update date for a token, with
// found=false when no row exists.
func (s *Screenshots) Get(chain, token string) (image []byte, updateDate time.Time, found bool, err error) {
	var row models.TokenScreenshot
	result := s.db.Where("chain = ? AND token_id = ?", chain, token).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, fmt.Errorf("querying token screenshot: %w", result.Error)
	}
	return row.ImageData, row.UpdateDate, true, nil
}

// Upsert inserts or overwrites the screenshot row for a token.
func (s *Screenshots) Upsert(chain, token string, updateDate time.Time, image []byte) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row models.TokenScreenshot
		result := tx.Where("chain = ? AND token_id = ?", chain, token).First(&row)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			row = models.TokenScreenshot{
				Chain:      chain,
				TokenID:    token,
				UpdateDate: updateDate,
				ImageData:  image,
			}
			return tx.Create(&row).Error
		}

		row.UpdateDate = updateDate
		row.ImageData = image
		return tx.Save(&row).Error
	})
}
