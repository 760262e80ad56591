package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-library-api/internal/domain"
	"go-library-api/internal/repo"
)

type BookService struct {
	db    *gorm.DB
	books *repo.BookRepo
	loans *repo.LoanRepo
	pg    PageConfig
	now   func() time.Time
}

func NewBookService(db *gorm.DB, pg PageConfig) *BookService {
	return &BookService{
		db:    db,
		books: repo.NewBookRepo(db),
		loans: repo.NewLoanRepo(db),
		pg:    pg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type CreateBookInput struct {
	Title       string
	Author      string
	ISBN        *string
	Year        *int
	Description string
	TotalCopies int // <=0 时默认 1
}

func (s *BookService) Create(ctx context.Context, in CreateBookInput) (*domain.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" {
		return nil, domain.Validationf("title is required")
	}
	if in.Author == "" {
		return nil, domain.Validationf("author is required")
	}
	if in.ISBN != nil && *in.ISBN != "" {
		if existing, err := s.books.FindByISBN(ctx, *in.ISBN); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, domain.Conflict("book with this ISBN already exists")
		}
	} else {
		in.ISBN = nil
	}
	total := in.TotalCopies
	if total <= 0 {
		total = 1
	}

	b := &domain.Book{
		Title:           in.Title,
		Author:          in.Author,
		ISBN:            in.ISBN,
		Year:            in.Year,
		Description:     in.Description,
		TotalCopies:     total,
		AvailableCopies: total,
	}
	b.Recompute()
	if err := s.books.Create(ctx, b); err != nil {
		if isDupKey(err) {
			return nil, domain.Conflict("book with this ISBN already exists")
		}
		return nil, err
	}
	return b, nil
}

func (s *BookService) Get(ctx context.Context, id uint) (*domain.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("book not found")
	}
	return b, nil
}

type BookPage struct {
	Books []domain.Book `json:"books"`
	PageMeta
	Search string `json:"search,omitempty"`
}

func (s *BookService) List(ctx context.Context, page, perPage int, search string) (*BookPage, error) {
	page, perPage = s.pg.Clamp(page, perPage)
	search = strings.TrimSpace(search)
	books, total, err := s.books.Search(ctx, search, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}
	return &BookPage{
		Books:    books,
		PageMeta: NewPageMeta(total, page, perPage),
		Search:   search,
	}, nil
}

type UpdateBookInput struct {
	Title       *string
	Author      *string
	ISBN        *string
	Year        *int
	Description *string
	TotalCopies *int
}

func (s *BookService) Update(ctx context.Context, id uint, in UpdateBookInput) (*domain.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("book not found")
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, domain.Validationf("title is required")
		}
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		if strings.TrimSpace(*in.Author) == "" {
			return nil, domain.Validationf("author is required")
		}
		b.Author = strings.TrimSpace(*in.Author)
	}
	if in.ISBN != nil {
		if *in.ISBN == "" {
			b.ISBN = nil
		} else {
			if other, err := s.books.FindByISBN(ctx, *in.ISBN); err != nil {
				return nil, err
			} else if other != nil && other.ID != id {
				return nil, domain.Conflict("book with this ISBN already exists")
			}
			b.ISBN = in.ISBN
		}
	}
	if in.Year != nil {
		b.Year = in.Year
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.TotalCopies != nil {
		if *in.TotalCopies < 1 {
			return nil, domain.Validationf("total_copies must be at least 1")
		}
		b.TotalCopies = *in.TotalCopies
		// 总量变化后，可借数 = 总量 - 在借数，向下夹到 0
		open, err := s.loans.CountOpenByBook(ctx, id)
		if err != nil {
			return nil, err
		}
		b.AvailableCopies = b.TotalCopies - int(open)
	}
	b.Recompute()

	if err := s.books.Update(ctx, b); err != nil {
		if isDupKey(err) {
			return nil, domain.Conflict("book with this ISBN already exists")
		}
		return nil, err
	}
	return b, nil
}

func (s *BookService) Delete(ctx context.Context, id uint) error {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		return domain.NotFound("book not found")
	}
	open, err := s.loans.CountOpenByBook(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return domain.Conflict("cannot delete book with active loans")
	}
	return s.books.Delete(ctx, id)
}

// Borrow 借书。整个流程跑在一个事务里；最后一本的并发争抢用条件扣减
// （available_copies > 0 才扣）兜底，抢不到的那笔拿 Conflict
func (s *BookService) Borrow(ctx context.Context, bookID, userID uint, days int) (*domain.BookLoan, error) {
	if days == 0 {
		days = domain.LoanDaysDefault
	}
	if days < domain.LoanDaysMin || days > domain.LoanDaysMax {
		return nil, domain.Validationf("loan period must be between %d and %d days", domain.LoanDaysMin, domain.LoanDaysMax)
	}

	var loan *domain.BookLoan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		books := repo.NewBookRepo(tx)
		loans := repo.NewLoanRepo(tx)
		users := repo.NewUserRepo(tx)

		b, err := books.FindByID(ctx, bookID)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.NotFound("book not found")
		}
		u, err := users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil || !u.IsActive {
			return domain.NotFound("user not found or inactive")
		}
		if open, err := loans.FindOpen(ctx, userID, bookID); err != nil {
			return err
		} else if open != nil {
			return domain.Conflict("user already has this book borrowed")
		}
		if b.AvailableCopies <= 0 {
			return domain.Conflict("book is not available for borrowing")
		}

		// 两列都从扣减前的库存导出，一条语句里原子完成。
		// is_available 必须写在 available_copies 之前：mysql 按出现顺序求值
		res := tx.Exec(`UPDATE books
			SET is_available = available_copies - 1 > 0,
			    available_copies = available_copies - 1
			WHERE id = ? AND available_copies > 0`, bookID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Conflict("book is not available for borrowing")
		}

		now := s.now()
		l := &domain.BookLoan{
			UserID:     userID,
			BookID:     bookID,
			BorrowedAt: now,
			DueDate:    now.AddDate(0, 0, days),
		}
		if err := loans.Create(ctx, l); err != nil {
			// 部分唯一索引兜住预检漏掉的同 (user, book) 并发借阅
			if isDupKey(err) {
				return domain.Conflict("user already has this book borrowed")
			}
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Return 还书。归还是一次性的：重复归还拿 Conflict，库存也只加一次
func (s *BookService) Return(ctx context.Context, loanID uint) (*domain.BookLoan, error) {
	var loan *domain.BookLoan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loans := repo.NewLoanRepo(tx)
		l, err := loans.FindByID(ctx, loanID)
		if err != nil {
			return err
		}
		if l == nil {
			return domain.NotFound("loan not found")
		}
		if l.IsReturned {
			return domain.Conflict("book already returned")
		}

		now := s.now()
		res := tx.Model(&domain.BookLoan{}).
			Where("id = ? AND is_returned = ?", loanID, false).
			Updates(map[string]any{"is_returned": true, "returned_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Conflict("book already returned")
		}
		l.IsReturned = true
		l.ReturnedAt = &now

		// 库存只增不破上限：available_copies < total_copies 才加
		if err := tx.Model(&domain.Book{}).
			Where("id = ? AND available_copies < total_copies", l.BookID).
			Updates(map[string]any{
				"available_copies": gorm.Expr("available_copies + 1"),
				"is_available":     true,
			}).Error; err != nil {
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *BookService) UserLoans(ctx context.Context, userID uint, activeOnly bool) ([]domain.BookLoan, error) {
	return s.loans.ListByUser(ctx, userID, activeOnly)
}

func (s *BookService) GetLoan(ctx context.Context, loanID uint) (*domain.BookLoan, error) {
	l, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.NotFound("loan not found")
	}
	return l, nil
}

func (s *BookService) OverdueLoans(ctx context.Context) ([]domain.BookLoan, error) {
	return s.loans.ListOverdue(ctx, s.now())
}
