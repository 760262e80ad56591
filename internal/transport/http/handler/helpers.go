package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-library-api/internal/domain"
	mdw "go-library-api/internal/transport/http/middleware"
)

func pathID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func queryInt(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v > 0 {
		return v
	}
	return def
}

// ownerOrAdmin 资源归属校验：本人或管理员
func ownerOrAdmin(c *gin.Context, ownerID uint) bool {
	uid, ok := mdw.UserID(c)
	return ok && (uid == ownerID || mdw.Role(c) == domain.RoleAdmin)
}

// loanView 给借阅记录补上读取时刻算出的 is_overdue
type loanView struct {
	domain.BookLoan
	IsOverdue bool `json:"is_overdue"`
}

func viewLoan(l domain.BookLoan) loanView {
	return loanView{BookLoan: l, IsOverdue: l.Overdue(time.Now().UTC())}
}

func viewLoans(ls []domain.BookLoan) []loanView {
	out := make([]loanView, 0, len(ls))
	for _, l := range ls {
		out = append(out, viewLoan(l))
	}
	return out
}
