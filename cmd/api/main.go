package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/vista0212/kommunity-backend/internal/board"
	boardrepo "github.com/vista0212/kommunity-backend/internal/board/repo"
	"github.com/vista0212/kommunity-backend/internal/config"
	"github.com/vista0212/kommunity-backend/internal/credential"
	"github.com/vista0212/kommunity-backend/internal/media"
	"github.com/vista0212/kommunity-backend/internal/router"
	"github.com/vista0212/kommunity-backend/internal/token"
	"github.com/vista0212/kommunity-backend/internal/user"
	userrepo "github.com/vista0212/kommunity-backend/internal/user/repo"
	"github.com/vista0212/kommunity-backend/pkg/database"
	"github.com/vista0212/kommunity-backend/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use real env)
	_ = godotenv.Load()

	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting kommunity-backend")

	// configuration is loaded once; a missing required value is fatal here,
	// never a per-request error
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	sqlDB, err := database.Connect(database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos
	db := sqlx.NewDb(sqlDB, "postgres")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	users := userrepo.NewUserRepo(db)
	if err := users.EnsureTable(startupCtx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	boards := boardrepo.NewBoardRepo(db)
	if err := boards.EnsureTables(startupCtx); err != nil {
		sugar.Fatalf("ensure board tables: %v", err)
	}

	creds, err := credential.NewStore(credential.Config{
		Iterations: cfg.HashIterations,
		KeyLength:  cfg.HashKeyLength,
		Digest:     cfg.HashDigest,
	})
	if err != nil {
		sugar.Fatalf("credential store: %v", err)
	}

	tokens, err := token.NewService(cfg.TokenSecret, token.DefaultValidity)
	if err != nil {
		sugar.Fatalf("token service: %v", err)
	}

	storage, err := media.NewS3Storage(startupCtx, media.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Bucket:          cfg.S3Bucket,
		Endpoint:        cfg.S3Endpoint,
	})
	if err != nil {
		sugar.Fatalf("object storage: %v", err)
	}

	userSvc := user.NewUserService(users, creds, tokens, sugar)
	boardSvc := board.NewBoardService(boards, userSvc, tokens, sugar)
	mediaSvc := media.NewService(boards, tokens, storage, sugar)

	handler := router.RegisterRoutes(sugar,
		user.NewHandler(userSvc, sugar),
		board.NewHandler(boardSvc, sugar),
		media.NewHandler(mediaSvc, sugar),
	)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infof("listening on %s", cfg.ServerAddr)
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
	if err := sqlDB.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
