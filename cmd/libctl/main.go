// libctl 运维小工具：建管理员账号、灌一批起始书目。
// 和 API 共用配置与服务层，不直接拼 SQL。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"go-library-api/internal/core/config"
	"go-library-api/internal/core/database"
	"go-library-api/internal/domain"
	"go-library-api/internal/memstore"
	"go-library-api/internal/repo"
	"go-library-api/internal/service"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "library admin utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(createAdminCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	db, err := database.NewGorm(database.Opts{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		LogLevel: "silent",
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Book{}, &domain.BookLoan{}); err != nil {
		return nil, err
	}
	if err := database.EnsureOpenLoanIndex(db, cfg.DB.Driver); err != nil {
		return nil, err
	}
	return db, nil
}

func createAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "create (or promote) an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			ctx := context.Background()
			users := repo.NewUserRepo(db)
			svc := service.NewUserService(users, nil, service.DefaultPageConfig())

			// 已存在就提升角色，不重复建号
			if existing, err := users.FindByEmail(ctx, email); err != nil {
				return err
			} else if existing != nil {
				role := domain.RoleAdmin
				if _, err := svc.Update(ctx, existing.ID, service.UpdateUserInput{Role: &role}); err != nil {
					return err
				}
				fmt.Printf("promoted %s to admin\n", email)
				return nil
			}

			u, err := svc.Create(ctx, service.CreateUserInput{
				Name: name, Email: email, Password: password, Role: domain.RoleAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created admin %s (id=%d)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type seedBook struct {
	title  string
	author string
	year   int
	copies int
}

var starterCatalog = []seedBook{
	{"1984", "George Orwell", 1949, 3},
	{"Animal Farm", "George Orwell", 1945, 2},
	{"The Art of War", "Sun Tzu", 1963, 1},
	{"Romeo and Juliet", "William Shakespeare", 1597, 2},
	{"The Three Musketeers", "Alexandre Dumas", 1844, 1},
	{"The Fellowship of the Ring", "J.R.R. Tolkien", 1954, 2},
}

func seedCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "load the starter catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				// 演练：灌进内存版书库，打印结果，不碰数据库
				store := memstore.New()
				for _, b := range starterCatalog {
					store.AddBook(b.title, b.author, b.year)
				}
				for _, b := range store.AllBooks() {
					fmt.Printf("would create: %q by %s\n", b.Title, b.Author)
				}
				return nil
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			ctx := context.Background()
			svc := service.NewBookService(db, service.DefaultPageConfig())
			created := 0
			for _, b := range starterCatalog {
				// 幂等：同名已在就跳过
				if page, err := svc.List(ctx, 1, 1, b.title); err != nil {
					return err
				} else if page.Total > 0 {
					continue
				}
				year := b.year
				if _, err := svc.Create(ctx, service.CreateBookInput{
					Title: b.title, Author: b.author, Year: &year, TotalCopies: b.copies,
				}); err != nil {
					return err
				}
				created++
			}
			fmt.Printf("seeded %d books\n", created)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be created without writing the database")
	return cmd
}
