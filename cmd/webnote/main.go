// Command webnote serves a browser-based editor for a single note file.
//
// The file path is fixed at most once per process: pass it on the command
// line, or leave it off and a native save dialog asks on the first save.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"webnote/internal/config"
	"webnote/internal/dialog"
	"webnote/internal/document"
	"webnote/internal/server"
	"webnote/internal/textenc"
	"webnote/internal/watcher"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		flagPort      int
		flagEncoding  string
		flagLogDir    string
		flagLogFormat string
		flagAccessLog bool
	)

	cmd := &cobra.Command{
		Use:   "webnote [file]",
		Short: "Edit one note file in the browser",
		Long: `webnote serves a small browser editor for a single text file on this
machine. Give it a file to open, or start it bare and pick a location
from the native save dialog the first time you save.`,
		Args:         cobra.MaximumNArgs(1),
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A .env file seeds the environment; absence is fine.
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}

			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.Port = flagPort
			}
			if cmd.Flags().Changed("encoding") {
				cfg.Encoding = flagEncoding
			}
			if cmd.Flags().Changed("log-dir") {
				cfg.LogDir = flagLogDir
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = flagLogFormat
			}
			if cmd.Flags().Changed("access-log") {
				cfg.AccessLog = flagAccessLog
			}
			if len(args) == 1 {
				cfg.File = args[0]
			}
			return run(cfg)
		},
	}

	cmd.Flags().IntVarP(&flagPort, "port", "p", 3000, "port to listen on (loopback only)")
	cmd.Flags().StringVarP(&flagEncoding, "encoding", "e", "utf-8",
		"on-disk text encoding ("+strings.Join(textenc.Names(), ", ")+")")
	cmd.Flags().StringVar(&flagLogDir, "log-dir", "", "also write rotating log files to this directory")
	cmd.Flags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
	cmd.Flags().BoolVar(&flagAccessLog, "access-log", false, "log every HTTP request")

	return cmd
}

func run(cfg *config.Config) error {
	logger := newLogger(cfg)

	enc, err := textenc.Lookup(cfg.Encoding)
	if err != nil {
		return err
	}

	w := watcher.New(logger.With("component", "watcher"))
	svc := document.NewService(document.Options{
		Path:     cfg.File,
		Encoding: enc,
		Picker:   dialog.Native(),
		Logger:   logger.With("component", "document"),
		Notifier: w,
	})

	srv := server.New(svc, w, version, cfg.AccessLog, logger.With("component", "http"))
	handler, err := srv.Handler()
	if err != nil {
		return err
	}

	// Bind before announcing anything so a taken port surfaces here, as an
	// operator-facing message, instead of deep inside Serve.
	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		reportBindFailure(cfg, err)
		waitForAck()
		os.Exit(1)
	}

	logger.Info("webnote starting",
		"addr", cfg.ListenAddr(),
		"encoding", enc.Name(),
		"file", cfg.File,
		"version", version,
	)

	fmt.Printf("\n  webnote v%s\n", version)
	color.New(color.FgCyan).Printf("  → http://%s\n", cfg.ListenAddr())
	fmt.Printf("  → encoding: %s\n\n", enc.Name())

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	w.Stop()
	logger.Info("goodbye")
	return nil
}

// newLogger builds the process logger: stdout always, teed into rotating
// files when a log dir is configured.
func newLogger(cfg *config.Config) *slog.Logger {
	var logWriter io.Writer = os.Stdout
	if cfg.LogDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "webnote.log"),
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		logWriter = io.MultiWriter(os.Stdout, rotator)
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func reportBindFailure(cfg *config.Config, err error) {
	red := color.New(color.FgRed, color.Bold)
	if errors.Is(err, syscall.EADDRINUSE) {
		red.Fprintf(os.Stderr, "Port %d is already in use.\n", cfg.Port)
		fmt.Fprintln(os.Stderr, "Another webnote may be running. Pick a different port with --port or WEBNOTE_PORT.")
	} else {
		red.Fprintf(os.Stderr, "Cannot listen on %s: %v\n", cfg.ListenAddr(), err)
	}
}

// waitForAck holds the window open so a user who launched us by double-click
// can read the failure before the process ends. Skipped when stdin is not a
// terminal.
func waitForAck() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	fmt.Fprint(os.Stderr, "Press any key to exit...")
	if state, err := term.MakeRaw(fd); err == nil {
		var buf [1]byte
		os.Stdin.Read(buf[:])
		term.Restore(fd, state)
	} else {
		bufio.NewReader(os.Stdin).ReadBytes('\n')
	}
	fmt.Fprintln(os.Stderr)
}
