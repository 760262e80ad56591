package domain

import "time"

// Book 馆藏图书。不变量：0 <= AvailableCopies <= TotalCopies
// IsAvailable 是派生列，每次写入时由 Recompute 重算，读取时不单独信任它
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null;index" json:"title"`
	Author          string    `gorm:"size:100;not null;index" json:"author"`
	ISBN            *string   `gorm:"uniqueIndex;size:13" json:"isbn"`
	Year            *int      `json:"year"`
	Description     string    `gorm:"type:text" json:"description"`
	TotalCopies     int       `gorm:"not null;default:1" json:"total_copies"`
	AvailableCopies int       `gorm:"not null;default:1" json:"available_copies"`
	IsAvailable     bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string { return "books" }

// Recompute 重新夹紧库存并刷新派生标记
func (b *Book) Recompute() {
	if b.AvailableCopies < 0 {
		b.AvailableCopies = 0
	}
	if b.AvailableCopies > b.TotalCopies {
		b.AvailableCopies = b.TotalCopies
	}
	b.IsAvailable = b.AvailableCopies > 0
}
