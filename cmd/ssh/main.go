package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"sentiment-desk/internal/artifact"
	"sentiment-desk/internal/config"
	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/tui"
	"sentiment-desk/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initTracerFunc    = tracing.InitTracer
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	config.ConfigureLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, "ssh")
	if err != nil {
		log.Fatal("failed to initialize tracer", "err", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("error shutting down tracer provider", "err", err)
		}
	}()

	store := artifact.NewStore(cfg.DataDir, tracer)
	load := func(ctx context.Context, ticker string) (*dashboard.View, error) {
		return dashboard.Load(ctx, store, ticker)
	}

	if len(cfg.SSHAuthorizedFingerprints) == 0 {
		log.Warn("SSH_AUTHORIZED_FINGERPRINTS is empty, every login will be refused")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)
	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(publicKeyHandler(cfg.SSHAuthorizedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(sessionHandler(cfg.Ticker, load)),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatal("failed to create SSH server", "err", err)
	}

	if srv != nil {
		go func() {
			log.Info("SSH server listening", "addr", addr, "data_dir", cfg.DataDir)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				log.Error("SSH server stopped", "err", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Info("shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("SSH server shutdown error", "err", err)
		}
	}

	log.Info("SSH server exited")
}

// publicKeyHandler admits keys whose SHA256 fingerprint is on the allow-list.
// An empty list admits nobody.
func publicKeyHandler(allowed []string) ssh.PublicKeyHandler {
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if !slices.Contains(allowed, fingerprint) {
			log.Warn("SSH auth denied", "user", ctx.User(), "fingerprint", fingerprint)
			return false
		}
		log.Info("SSH auth accepted", "user", ctx.User(), "fingerprint", fingerprint)
		return true
	}
}

// sessionHandler opens the dashboard for the ticker named as the SSH user
// (ssh -p 23234 MSFT@host), falling back to the configured default.
func sessionHandler(defaultTicker string, load tui.Loader) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		model := tui.NewModel(sessionTicker(s.User(), defaultTicker), load)
		pty, _, _ := s.Pty()
		model.SetSize(pty.Window.Width, pty.Window.Height)
		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

func sessionTicker(user, defaultTicker string) string {
	user = strings.TrimSpace(user)
	if user == "" || strings.EqualFold(user, "dashboard") {
		return defaultTicker
	}
	return strings.ToUpper(user)
}
