package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-library-api/internal/domain"
)

// 失败统一是 {"error": "..."}，成功直接给领域数据。
// 业务错误分类 → 状态码的翻译只发生在这里，HTTP 层不发明新规则。

func statusOf(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Err 翻译业务错误；未知错误一律 500，且不把内部细节带出去
func Err(c *gin.Context, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		c.JSON(statusOf(de.Kind), gin.H{"error": de.Error()})
		return
	}
	_ = c.Error(err) // 留给 access log
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortFail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
