package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-library-api/internal/service"
	mdw "go-library-api/internal/transport/http/middleware"
	resp "go-library-api/internal/transport/http/response"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in struct {
		Name     string `json:"name" binding:"required,min=2"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Role     string `json:"role" binding:"omitempty,oneof=user admin"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Name: in.Name, Email: in.Email, Password: in.Password, Role: in.Role,
	})
	if err != nil {
		resp.Err(c, err)
		return
	}
	tok, err := h.users.AccessToken(u)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusCreated, gin.H{
		"message":      "User created successfully",
		"access_token": tok,
		"user":         u,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		resp.Err(c, err)
		return
	}
	if u == nil {
		// 查无此人/密码不对/账号停用，对外一律一句话
		resp.Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	tok, err := h.users.AccessToken(u)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"access_token": tok, "user": u})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	uid, ok := mdw.UserID(c)
	if !ok {
		resp.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.users.Get(c.Request.Context(), uid)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"user": u})
}

// POST /auth/refresh 用仍有效的 token 换一张新的
func (h *AuthHandler) Refresh(c *gin.Context) {
	uid, ok := mdw.UserID(c)
	if !ok {
		resp.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.users.Get(c.Request.Context(), uid)
	if err != nil {
		resp.Err(c, err)
		return
	}
	if !u.IsActive {
		resp.Fail(c, http.StatusUnauthorized, "account disabled")
		return
	}
	tok, err := h.users.AccessToken(u)
	if err != nil {
		resp.Err(c, err)
		return
	}
	resp.JSON(c, http.StatusOK, gin.H{"access_token": tok})
}
