package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-library-api/internal/domain"
)

type LoanRepo struct{ db *gorm.DB }

func NewLoanRepo(db *gorm.DB) *LoanRepo { return &LoanRepo{db: db} }

func (r *LoanRepo) Create(ctx context.Context, l *domain.BookLoan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepo) FindByID(ctx context.Context, id uint) (*domain.BookLoan, error) {
	var l domain.BookLoan
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

// FindOpen 查该用户对该书是否还有未还记录
func (r *LoanRepo) FindOpen(ctx context.Context, userID, bookID uint) (*domain.BookLoan, error) {
	var l domain.BookLoan
	err := r.db.WithContext(ctx).
		First(&l, "user_id = ? AND book_id = ? AND is_returned = ?", userID, bookID, false).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &l, err
}

func (r *LoanRepo) CountOpenByBook(ctx context.Context, bookID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BookLoan{}).
		Where("book_id = ? AND is_returned = ?", bookID, false).
		Count(&n).Error
	return n, err
}

func (r *LoanRepo) ListByUser(ctx context.Context, userID uint, activeOnly bool) ([]domain.BookLoan, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		tx = tx.Where("is_returned = ?", false)
	}
	var loans []domain.BookLoan
	err := tx.Order("borrowed_at DESC").Find(&loans).Error
	return loans, err
}

// ListOverdue 逾期 = 未还且到期时间已过，按读取时刻判断
func (r *LoanRepo) ListOverdue(ctx context.Context, now time.Time) ([]domain.BookLoan, error) {
	var loans []domain.BookLoan
	err := r.db.WithContext(ctx).
		Where("is_returned = ? AND due_date < ?", false, now).
		Order("due_date").
		Find(&loans).Error
	return loans, err
}

func (r *LoanRepo) Update(ctx context.Context, l *domain.BookLoan) error {
	return r.db.WithContext(ctx).Save(l).Error
}
