// REPL binary for inspecting how statements are parsed and paged, and for
// running them one page at a time.
//
// Configuration (env vars):
//
//	DATABASE_URL=<dsn>                     (optional, auto-connects if set)
//	SQLPAGE_ENGINE=postgres|mysql|sqlite  (optional, inferred from DATABASE_URL)
//	SQLPAGE_CONFIG=<file.yaml|file.json>   (optional, otherwise SQLPAGE_* vars)
//	SQLPAGE_LOG_FILE=<path>                (optional, defaults to stderr)
//	SQLPAGE_HISTORY=<path>                 (optional, defaults to ~/.sqlpage_history)
//
// Usage:
//
//	go run ./cmd/repl
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bawdo/sqlpage/internal/config"
	"github.com/bawdo/sqlpage/internal/logging"
	"github.com/ergochat/readline"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, logCloser, err := logging.New(logging.Config{
		Level:      logging.LogLevel(cfg.LogLevel),
		Format:     cfg.LogFormat,
		OutputPath: os.Getenv("SQLPAGE_LOG_FILE"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()

	dsn := os.Getenv("DATABASE_URL")
	engine, err := resolveEngine(os.Getenv("SQLPAGE_ENGINE"), dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[Config] Engine: %s, page size %d (max %d)\n", engine, cfg.DefaultPageSize, cfg.MaxPageSize)
	sess := NewSession(engine, cfg, logging.WithEngine(logger, engine))

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "sqlpage> ",
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	if dsn != "" {
		if err := sess.Execute("connect " + dsn); err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: DATABASE_URL connect failed: %v\n", err)
		}
	} else {
		fmt.Println("[Config] No DATABASE_URL: use 'connect <dsn>' to run statements")
	}

	fmt.Println()
	fmt.Println("sqlpage REPL: type 'help' for commands, 'exit' to quit")
	fmt.Println()

	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	if sess.conn != nil {
		_ = sess.conn.close()
	}
	fmt.Println()
}

// loadConfig reads SQLPAGE_CONFIG when set, otherwise SQLPAGE_* variables.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	if path := os.Getenv("SQLPAGE_CONFIG"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		fmt.Printf("[Config] Loaded %s\n", path)
	} else {
		cfg = config.LoadFromEnv()
	}
	return cfg, cfg.Validate()
}

// resolveEngine picks the engine named by env, or the one dsn is written
// for. Without either it is sqlite.
func resolveEngine(env, dsn string) (string, error) {
	engine := strings.ToLower(strings.TrimSpace(env))
	switch {
	case engine != "":
		if !isValidEngine(engine) {
			return "", fmt.Errorf("unknown SQLPAGE_ENGINE %q (choose: %s)", env, strings.Join(engines, ", "))
		}
		return engine, nil
	case dsn != "":
		return inferEngine(dsn), nil
	}
	return "sqlite", nil
}

// historyPath returns SQLPAGE_HISTORY, or a file in the home directory.
// An empty result disables history.
func historyPath() string {
	if path := os.Getenv("SQLPAGE_HISTORY"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlpage_history")
}
