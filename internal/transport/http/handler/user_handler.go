package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-library-api/internal/service"
	resp "go-library-api/internal/transport/http/response"
)

type UserHandler struct {
	users *service.UserService
	books *service.BookService
}

func NewUserHandler(users *service.UserService, books *service.BookService) *UserHandler {
	return &UserHandler{users: users, books: books}
}

// GET /users （仅管理员）
func (h *UserHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 0)
	out, err := h.users.List(c.Request.Context(), page, perPage)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, out)
}

// GET /users/:id （本人或管理员）
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	if !ownerOrAdmin(c, id) {
		resp.Fail(c, http.StatusForbidden, "access denied")
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"user": u})
}

// PUT /users/:id （本人或管理员）
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	if !ownerOrAdmin(c, id) {
		resp.Fail(c, http.StatusForbidden, "access denied")
		return
	}
	var in struct {
		Name     *string `json:"name" binding:"omitempty,min=2"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
		IsActive *bool   `json:"is_active"`
		Password *string `json:"password" binding:"omitempty,min=6"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, service.UpdateUserInput{
		Name: in.Name, Email: in.Email, Role: in.Role, IsActive: in.IsActive, Password: in.Password,
	})
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"message": "User updated successfully", "user": u})
}

// DELETE /users/:id 软删（仅管理员）
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GET /users/:id/loans （本人或管理员）
func (h *UserHandler) Loans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		resp.Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}
	if !ownerOrAdmin(c, id) {
		resp.Fail(c, http.StatusForbidden, "access denied")
		return
	}
	activeOnly := c.Query("active_only") == "true"
	loans, err := h.books.UserLoans(c.Request.Context(), id, activeOnly)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"loans": viewLoans(loans), "total": len(loans)})
}
