package service

import (
	"context"
	"strings"

	"go-library-api/internal/core/auth"
	"go-library-api/internal/domain"
	"go-library-api/internal/repo"
	"go-library-api/pkg/utils"
)

type UserService struct {
	users *repo.UserRepo
	jwter *auth.JWTer
	pg    PageConfig
}

func NewUserService(users *repo.UserRepo, jwter *auth.JWTer, pg PageConfig) *UserService {
	return &UserService{users: users, jwter: jwter, pg: pg}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string // 为空默认 user
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Name == "":
		return nil, domain.Validationf("name is required")
	case in.Email == "":
		return nil, domain.Validationf("email is required")
	case in.Password == "":
		return nil, domain.Validationf("password is required")
	case !strings.Contains(in.Email, "@"):
		return nil, domain.Validationf("invalid email format")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, domain.Validationf("invalid role %q", role)
	}

	if existing, err := s.users.FindByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.Conflict("user with this email already exists")
	}

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		IsActive:     true,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册兜底：唯一索引兜住预检漏掉的冲突
		if isDupKey(err) {
			return nil, domain.Conflict("user with this email already exists")
		}
		return nil, err
	}
	return u, nil
}

// Authenticate 密码不匹配或账号停用都返回 (nil, nil)，由调用方决定如何报告
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, nil
	}
	return u, nil
}

func (s *UserService) AccessToken(u *domain.User) (string, error) {
	return s.jwter.Issue(u.ID, u.Role)
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

type UserPage struct {
	Users []domain.User `json:"users"`
	PageMeta
}

func (s *UserService) List(ctx context.Context, page, perPage int) (*UserPage, error) {
	page, perPage = s.pg.Clamp(page, perPage)
	users, total, err := s.users.List(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: users, PageMeta: NewPageMeta(total, page, perPage)}, nil
}

type UpdateUserInput struct {
	Name     *string
	Email    *string
	Role     *string
	IsActive *bool
	Password *string
}

func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !strings.Contains(email, "@") {
			return nil, domain.Validationf("invalid email format")
		}
		if other, err := s.users.FindByEmail(ctx, email); err != nil {
			return nil, err
		} else if other != nil && other.ID != id {
			return nil, domain.Conflict("email already exists")
		}
		u.Email = email
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.Validationf("name is required")
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if !domain.ValidRole(*in.Role) {
			return nil, domain.Validationf("invalid role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, domain.Validationf("password is required")
		}
		u.PasswordHash = utils.HashPassword(*in.Password)
	}

	if err := s.users.Update(ctx, u); err != nil {
		if isDupKey(err) {
			return nil, domain.Conflict("email already exists")
		}
		return nil, err
	}
	return u, nil
}

// Delete 软删：只翻 IsActive，行保留给借阅历史
func (s *UserService) Delete(ctx context.Context, id uint) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("user not found")
	}
	u.IsActive = false
	return s.users.Update(ctx, u)
}

func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "unique failed")
}
