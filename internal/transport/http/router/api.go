package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-library-api/internal/core/auth"
	"go-library-api/internal/domain"
	"go-library-api/internal/transport/http/handler"
	mdw "go-library-api/internal/transport/http/middleware"
)

type Deps struct {
	Log   *zap.Logger
	JWTer *auth.JWTer
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Books *handler.BookHandler
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		ginzap.RecoveryWithZap(d.Log, true),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWTer, ""))
	admin := api.Group("")
	admin.Use(mdw.AuthJWT(d.JWTer, domain.RoleAdmin))

	// 认证
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	authed.GET("/auth/me", d.Auth.Me)
	authed.POST("/auth/refresh", d.Auth.Refresh)

	// 图书：浏览公开，管理要 admin
	api.GET("/books", d.Books.List)
	api.GET("/books/:id", d.Books.Get)
	admin.POST("/books", d.Books.Create)
	admin.PUT("/books/:id", d.Books.Update)
	admin.DELETE("/books/:id", d.Books.Delete)

	// 借还
	authed.POST("/books/:id/borrow", d.Books.Borrow)
	authed.POST("/loans/:id/return", d.Books.Return)
	admin.GET("/loans/overdue", d.Books.Overdue)

	// 用户管理
	admin.GET("/users", d.Users.List)
	authed.GET("/users/:id", d.Users.Get)
	authed.PUT("/users/:id", d.Users.Update)
	admin.DELETE("/users/:id", d.Users.Delete)
	authed.GET("/users/:id/loans", d.Users.Loans)

	return r
}
