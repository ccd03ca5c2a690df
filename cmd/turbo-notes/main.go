// Package main wires configuration, logging, the platform keyring and the
// document store together and unlocks the store for the calling front-end.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/rijulsr/turbo-notes/internal/config"
	"github.com/rijulsr/turbo-notes/internal/keyring"
	"github.com/rijulsr/turbo-notes/internal/logger"
	"github.com/rijulsr/turbo-notes/internal/service"
	"github.com/rijulsr/turbo-notes/internal/storage"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// promptPassword reads a password from the terminal without echo.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter master password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func main() {
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	creds, err := keyring.OpenSystem(options.KeyringService)
	if err != nil {
		zapLogger.Fatal("cannot open keyring", zap.Error(err))
	}

	store := service.New(
		zapLogger,
		creds,
		storage.NewSaltStore(options.SaltPath),
		storage.NewDocumentFile(options.DocumentPath),
		options.KDFIterations,
	)

	ctx := context.Background()
	ok, err := store.SetupOrUnlock(ctx, promptPassword)
	if err != nil {
		zapLogger.Fatal("cannot unlock store", zap.Error(err))
	}
	if !ok {
		zapLogger.Fatal("unlock refused")
	}

	doc := store.Document()
	zapLogger.Info("store ready",
		zap.String("mode", store.Mode().String()),
		zap.Int("notes", len(doc.Notes)),
		zap.Int("tasks", len(doc.Tasks)))
}
