package domain

import "time"

const (
	LoanDaysDefault = 14
	LoanDaysMin     = 1
	LoanDaysMax     = 90
)

// BookLoan 一次借阅记录。只有两个状态：未还 → 已还（终态），记录永不删除
// 同一 (user, book) 最多只允许一条未还记录
type BookLoan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	BorrowedAt time.Time  `gorm:"not null" json:"borrowed_at"`
	DueDate    time.Time  `gorm:"index;not null" json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at"`
	IsReturned bool       `gorm:"not null;default:false" json:"is_returned"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Book *Book `gorm:"foreignKey:BookID" json:"-"`
}

func (BookLoan) TableName() string { return "book_loans" }

// Overdue 逾期是读取时刻算出来的谓词，不落库
func (l *BookLoan) Overdue(now time.Time) bool {
	return !l.IsReturned && now.After(l.DueDate)
}
