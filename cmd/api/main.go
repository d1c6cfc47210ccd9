package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhangyu-521/blog-system/internal/article"
	artrepo "github.com/zhangyu-521/blog-system/internal/article/repo"
	"github.com/zhangyu-521/blog-system/internal/auth"
	"github.com/zhangyu-521/blog-system/internal/category"
	catrepo "github.com/zhangyu-521/blog-system/internal/category/repo"
	"github.com/zhangyu-521/blog-system/internal/comment"
	commentrepo "github.com/zhangyu-521/blog-system/internal/comment/repo"
	"github.com/zhangyu-521/blog-system/internal/config"
	"github.com/zhangyu-521/blog-system/internal/mail"
	"github.com/zhangyu-521/blog-system/internal/migrations"
	"github.com/zhangyu-521/blog-system/internal/router"
	"github.com/zhangyu-521/blog-system/internal/tag"
	tagrepo "github.com/zhangyu-521/blog-system/internal/tag/repo"
	"github.com/zhangyu-521/blog-system/internal/upload"
	"github.com/zhangyu-521/blog-system/internal/user"
	userrepo "github.com/zhangyu-521/blog-system/internal/user/repo"
	"github.com/zhangyu-521/blog-system/pkg/cache"
	"github.com/zhangyu-521/blog-system/pkg/database"
	"github.com/zhangyu-521/blog-system/pkg/utilities"
)

func main() {
	// best-effort .env load so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	sugar.Infow("starting", "app", cfg.App.Name, "env", cfg.App.Env)

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.Up(ctx, db.DB); err != nil {
		sugar.Fatalf("migrate: %v", err)
	}

	listCache := cache.New(30*time.Second, time.Minute)
	defer listCache.Close()

	mailer := mail.New(cfg.Mail, cfg.App.BaseURL, sugar)

	users := userrepo.NewUserRepo(db)
	authSvc, err := auth.NewService(users, nil, mailer, sugar, cfg.JWT)
	if err != nil {
		sugar.Fatalf("auth service: %v", err)
	}
	userSvc := user.NewService(users, nil)
	articleSvc := article.NewService(artrepo.NewArticleRepo(db))
	categorySvc := category.NewService(catrepo.NewCategoryRepo(db), listCache)
	tagSvc := tag.NewService(tagrepo.NewTagRepo(db), listCache)
	commentSvc := comment.NewService(commentrepo.NewCommentRepo(db), articleSvc)
	uploadSvc, err := upload.NewService(cfg.Upload, cfg.App.BaseURL)
	if err != nil {
		sugar.Fatalf("upload service: %v", err)
	}

	handler := router.RegisterRoutes(sugar, router.Handlers{
		Auth:      auth.NewHandler(authSvc, sugar),
		Guard:     auth.NewGuard([]byte(cfg.JWT.Secret), sugar),
		User:      user.NewHandler(userSvc, sugar),
		Article:   article.NewHandler(articleSvc, sugar),
		Category:  category.NewHandler(categorySvc, sugar),
		Tag:       tag.NewHandler(tagSvc, sugar),
		Comment:   comment.NewHandler(commentSvc, sugar),
		Upload:    upload.NewHandler(uploadSvc, sugar),
		UploadDir: uploadSvc.Dir(),
	})

	srv := &http.Server{
		Addr:    cfg.App.Addr,
		Handler: handler,
	}

	go func() {
		sugar.Infow("listening", "addr", cfg.App.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}
