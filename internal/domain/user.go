package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 读者/管理员账号。删除是软删：IsActive=false，行保留（借阅历史要引用它）
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:120;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	Role         string    `gorm:"size:20;not null;default:user" json:"role"` // user / admin
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }
