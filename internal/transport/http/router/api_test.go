package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-library-api/internal/core/auth"
	"go-library-api/internal/core/database"
	"go-library-api/internal/domain"
	"go-library-api/internal/repo"
	"go-library-api/internal/service"
	"go-library-api/internal/transport/http/handler"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Book{}, &domain.BookLoan{}))
	require.NoError(t, database.EnsureOpenLoanIndex(db, "sqlite"))

	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	pg := service.DefaultPageConfig()
	userSvc := service.NewUserService(repo.NewUserRepo(db), jwter, pg)
	bookSvc := service.NewBookService(db, pg)

	return NewAPIEngine(Deps{
		Log:   zap.NewNop(),
		JWTer: jwter,
		Auth:  handler.NewAuthHandler(userSvc),
		Users: handler.NewUserHandler(userSvc, bookSvc),
		Books: handler.NewBookHandler(bookSvc, nil, 0),
	})
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

// 注册并返回 access_token
func register(t *testing.T, r *gin.Engine, name, email, role string) string {
	t.Helper()
	w, body := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret123", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tok, _ := body["access_token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func objID(t *testing.T, body map[string]any, key string) uint {
	t.Helper()
	obj, ok := body[key].(map[string]any)
	require.True(t, ok, "missing %q in %v", key, body)
	id, ok := obj["id"].(float64)
	require.True(t, ok)
	return uint(id)
}

func TestHealth(t *testing.T) {
	r := newTestEngine(t)
	w, _ := do(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	r := newTestEngine(t)

	tok := register(t, r, "Alice", "alice@example.com", "")

	// 重复注册 → 409 {"error": ...}
	w, body := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Other", "email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, body["error"], "already exists")

	// 缺字段 → 400
	w, _ = do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "X"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 登录
	w, _ = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong-pass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, body["access_token"])

	// /auth/me
	w, body = do(t, r, http.MethodGet, "/api/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	u := body["user"].(map[string]any)
	require.Equal(t, "alice@example.com", u["email"])
	_, hasHash := u["password_hash"]
	require.False(t, hasHash) // 密码散列不下发

	w, _ = do(t, r, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// refresh 换新 token
	w, body = do(t, r, http.MethodPost, "/api/v1/auth/refresh", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, body["access_token"])
}

func TestBookAdminGating(t *testing.T) {
	r := newTestEngine(t)
	adminTok := register(t, r, "Admin", "admin@example.com", "admin")
	userTok := register(t, r, "Alice", "alice@example.com", "")

	newBook := gin.H{"title": "1984", "author": "George Orwell", "total_copies": 2}

	// 普通用户建不了书
	w, _ := do(t, r, http.MethodPost, "/api/v1/books", userTok, newBook)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/v1/books", "", newBook)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := do(t, r, http.MethodPost, "/api/v1/books", adminTok, newBook)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookID := objID(t, body, "book")

	// 浏览是公开的
	w, body = do(t, r, http.MethodGet, "/api/v1/books", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, body["total"])

	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", bookID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/v1/books/9999", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/v1/books/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 更新/删除也只有管理员能做
	w, _ = do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/books/%d", bookID), userTok, gin.H{"title": "X"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/books/%d", bookID), adminTok, gin.H{"title": "Nineteen Eighty-Four"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", bookID), adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/books/%d", bookID), "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBorrowReturnOverHTTP(t *testing.T) {
	r := newTestEngine(t)
	adminTok := register(t, r, "Admin", "admin@example.com", "admin")
	aliceTok := register(t, r, "Alice", "alice@example.com", "")
	bobTok := register(t, r, "Bob", "bob@example.com", "")

	w, body := do(t, r, http.MethodPost, "/api/v1/books", adminTok, gin.H{
		"title": "The Hobbit", "author": "J.R.R. Tolkien", "total_copies": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookID := objID(t, body, "book")
	borrowPath := fmt.Sprintf("/api/v1/books/%d/borrow", bookID)

	// 匿名借不了
	w, _ = do(t, r, http.MethodPost, borrowPath, "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Alice 空 body 借书 → 默认 14 天
	w, body = do(t, r, http.MethodPost, borrowPath, aliceTok, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	loanID := objID(t, body, "loan")
	loan := body["loan"].(map[string]any)
	require.Equal(t, false, loan["is_returned"])
	require.Equal(t, false, loan["is_overdue"])

	// 最后一本被借走：Bob 409，Alice 重复借也 409
	w, _ = do(t, r, http.MethodPost, borrowPath, bobTok, gin.H{"days": 7})
	require.Equal(t, http.StatusConflict, w.Code)
	w, _ = do(t, r, http.MethodPost, borrowPath, aliceTok, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// days 超范围 → 400（binding 挡下）
	w, _ = do(t, r, http.MethodPost, borrowPath, bobTok, gin.H{"days": 365})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 有未还借阅的书删不掉
	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/books/%d", bookID), adminTok, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	returnPath := fmt.Sprintf("/api/v1/loans/%d/return", loanID)

	// 别人替还 → 403；本人还 → 200；重复还 → 409
	w, _ = do(t, r, http.MethodPost, returnPath, bobTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, body = do(t, r, http.MethodPost, returnPath, aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["loan"].(map[string]any)["is_returned"])
	w, _ = do(t, r, http.MethodPost, returnPath, aliceTok, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/loans/9999/return", aliceTok, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// 还完 Bob 能借到了
	w, _ = do(t, r, http.MethodPost, borrowPath, bobTok, gin.H{"days": 7})
	require.Equal(t, http.StatusCreated, w.Code)

	// 管理员可以替借阅人归还
	var bobLoanID uint
	{
		w, body = do(t, r, http.MethodGet, "/api/v1/auth/me", bobTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		bobID := objID(t, body, "user")
		w, body = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/loans?active_only=true", bobID), bobTok, nil)
		require.Equal(t, http.StatusOK, w.Code)
		loans := body["loans"].([]any)
		require.Len(t, loans, 1)
		bobLoanID = uint(loans[0].(map[string]any)["id"].(float64))
	}
	w, _ = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/loans/%d/return", bobLoanID), adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOverdueEndpointAdminOnly(t *testing.T) {
	r := newTestEngine(t)
	adminTok := register(t, r, "Admin", "admin@example.com", "admin")
	userTok := register(t, r, "Alice", "alice@example.com", "")

	w, _ := do(t, r, http.MethodGet, "/api/v1/loans/overdue", userTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, body := do(t, r, http.MethodGet, "/api/v1/loans/overdue", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, body["total"])
}

func TestUserEndpointsOwnership(t *testing.T) {
	r := newTestEngine(t)
	adminTok := register(t, r, "Admin", "admin@example.com", "admin")
	aliceTok := register(t, r, "Alice", "alice@example.com", "")
	bobTok := register(t, r, "Bob", "bob@example.com", "")

	_, body := do(t, r, http.MethodGet, "/api/v1/auth/me", aliceTok, nil)
	aliceID := objID(t, body, "user")
	alicePath := fmt.Sprintf("/api/v1/users/%d", aliceID)

	// 用户列表只有管理员能看
	w, _ := do(t, r, http.MethodGet, "/api/v1/users", aliceTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, body = do(t, r, http.MethodGet, "/api/v1/users?page=1&per_page=2", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 3, body["total"])
	require.EqualValues(t, 2, body["pages"])
	require.Equal(t, true, body["has_next"])

	// 本人/管理员能看，外人 403
	w, _ = do(t, r, http.MethodGet, alicePath, aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, alicePath, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, alicePath, bobTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// 改资料同理
	w, _ = do(t, r, http.MethodPut, alicePath, bobTok, gin.H{"name": "Hacked"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w, body = do(t, r, http.MethodPut, alicePath, aliceTok, gin.H{"name": "Alice Liddell"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Alice Liddell", body["user"].(map[string]any)["name"])

	// 删除（软删）只有管理员；删掉之后 token 仍能解析但账号已停用
	w, _ = do(t, r, http.MethodDelete, alicePath, aliceTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, r, http.MethodDelete, alicePath, adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/v1/auth/refresh", aliceTok, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
