package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-library-api/internal/core/cache"
	"go-library-api/internal/domain"
	"go-library-api/internal/service"
	mdw "go-library-api/internal/transport/http/middleware"
	resp "go-library-api/internal/transport/http/response"
)

type BookHandler struct {
	books    *service.BookService
	cache    *cache.Cache // 可为 nil（未配置 redis）
	cacheTTL time.Duration
}

func NewBookHandler(books *service.BookService, c *cache.Cache, ttl time.Duration) *BookHandler {
	return &BookHandler{books: books, cache: c, cacheTTL: ttl}
}

func bookKey(id uint) string { return fmt.Sprintf("book:%d", id) }

func (h *BookHandler) invalidate(ctx context.Context, id uint) {
	if h.cache != nil {
		h.cache.Del(ctx, bookKey(id))
	}
}

// GET /books （公开）
func (h *BookHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 0)
	out, err := h.books.List(c.Request.Context(), page, perPage, c.Query("search"))
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, out)
}

// GET /books/:id （公开，配置了 redis 则走读穿缓存）
func (h *BookHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid book id")
		return
	}
	ctx := c.Request.Context()
	if h.cache != nil {
		b, err := cache.GetOrLoadJSON[domain.Book](h.cache, ctx, bookKey(id), h.cacheTTL,
			func(ctx context.Context) (*domain.Book, error) {
				return h.books.Get(ctx, id)
			})
		if err != nil {
			resp.Err(c, err)
			return
		}
		resp.JSON(c, http.StatusOK, gin.H{"book": b})
		return
	}
	b, err := h.books.Get(ctx, id)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"book": b})
}

// POST /books （仅管理员）
func (h *BookHandler) Create(c *gin.Context) {
	var in struct {
		Title       string  `json:"title" binding:"required"`
		Author      string  `json:"author" binding:"required"`
		ISBN        *string `json:"isbn" binding:"omitempty,len=10|len=13"`
		Year        *int    `json:"year" binding:"omitempty,gte=1000,lte=2100"`
		Description string  `json:"description"`
		TotalCopies int     `json:"total_copies" binding:"omitempty,gte=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.books.Create(c.Request.Context(), service.CreateBookInput{
		Title: in.Title, Author: in.Author, ISBN: in.ISBN, Year: in.Year,
		Description: in.Description, TotalCopies: in.TotalCopies,
	})
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusCreated, gin.H{"message": "Book created successfully", "book": b})
}

// PUT /books/:id （仅管理员）
func (h *BookHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid book id")
		return
	}
	var in struct {
		Title       *string `json:"title"`
		Author      *string `json:"author"`
		ISBN        *string `json:"isbn" binding:"omitempty,len=10|len=13"`
		Year        *int    `json:"year" binding:"omitempty,gte=1000,lte=2100"`
		Description *string `json:"description"`
		TotalCopies *int    `json:"total_copies" binding:"omitempty,gte=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.books.Update(c.Request.Context(), id, service.UpdateBookInput{
		Title: in.Title, Author: in.Author, ISBN: in.ISBN, Year: in.Year,
		Description: in.Description, TotalCopies: in.TotalCopies,
	})
	if err != nil {
		resp.Err(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	resp.JSON(c, http.StatusOK, gin.H{"message": "Book updated successfully", "book": b})
}

// DELETE /books/:id （仅管理员；有未还借阅时拒绝）
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid book id")
		return
	}
	if err := h.books.Delete(c.Request.Context(), id); err != nil {
		resp.Err(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	resp.JSON(c, http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

// POST /books/:id/borrow
func (h *BookHandler) Borrow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid book id")
		return
	}
	uid, ok := mdw.UserID(c)
	if !ok {
		resp.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in struct {
		Days int `json:"days" binding:"omitempty,gte=1,lte=90"`
	}
	// 空 body 也允许：days 走默认 14 天
	if err := c.ShouldBindJSON(&in); err != nil && c.Request.ContentLength > 0 {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	loan, err := h.books.Borrow(c.Request.Context(), id, uid, in.Days)
	if err != nil {
		resp.Err(c, err)
		return
	}
	h.invalidate(c.Request.Context(), id)
	resp.JSON(c, http.StatusCreated, gin.H{"message": "Book borrowed successfully", "loan": viewLoan(*loan)})
}

// POST /loans/:id/return （借阅人本人或管理员）
func (h *BookHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid loan id")
		return
	}
	ctx := c.Request.Context()
	loan, err := h.books.GetLoan(ctx, id)
	if err != nil {
		resp.Err(c, err)
		return
	}
	if !ownerOrAdmin(c, loan.UserID) {
		resp.Fail(c, http.StatusForbidden, "access denied")
		return
	}
	returned, err := h.books.Return(ctx, id)
	if err != nil {
		resp.Err(c, err)
		return
	}
	h.invalidate(ctx, returned.BookID)
	resp.JSON(c, http.StatusOK, gin.H{"message": "Book returned successfully", "loan": viewLoan(*returned)})
}

// GET /loans/overdue （仅管理员）
func (h *BookHandler) Overdue(c *gin.Context) {
	loans, err := h.books.OverdueLoans(c.Request.Context())
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"overdue_loans": viewLoans(loans), "total": len(loans)})
}
