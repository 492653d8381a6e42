package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursesync/config"
	"coursesync/db"
	"coursesync/logging"
	"coursesync/model"
)

const (
	defaultMaxBackups = 5
	backupFileExt     = ".bak"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stderr))
}

func execute(ctx context.Context, args []string, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "bootstrap: %v\n", err)
		return model.ExitCodeForError(err)
	}
	return model.ExitSuccess
}

func newRootCmd() *cobra.Command {
	var doBackup bool
	var maxBackups int

	rootCmd := &cobra.Command{
		Use:   "bootstrap CONNECTION",
		Short: "Create the module table without touching existing rows",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected exactly one CONNECTION argument, got %d", model.ErrInvalidConfig, len(args))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxBackups < 1 {
				return fmt.Errorf("%w: --max-backups must be at least 1, got %d", model.ErrInvalidConfig, maxBackups)
			}
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load(config.NewViper(), args[0], config.DefaultTimeoutSeconds)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			target, err := db.ParseConnectionString(cfg.Connection)
			if err != nil {
				return err
			}
			if path, ok := target.SQLiteFile(); ok && doBackup {
				if err := backupDatabase(log, path, time.Now(), maxBackups); err != nil {
					return err
				}
			}

			conn, err := db.Open(cmd.Context(), target, &gorm.Config{Logger: db.NewGormLogger(log, cfg.SQLEcho)})
			if err != nil {
				return err
			}
			store := db.NewSQLStore(conn).WithLogger(log)
			defer func() { _ = store.Close() }()

			if err := db.EnsureSchema(conn.WithContext(cmd.Context()), db.ModuleSchema()); err != nil {
				return err
			}
			log.Infow("schema ready", "target", target.String())
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&doBackup, "backup", true, "Whether to back up an existing SQLite database file first")
	rootCmd.Flags().IntVar(&maxBackups, "max-backups", defaultMaxBackups, "Maximum number of backups to retain")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", model.ErrInvalidConfig, err)
	})
	return rootCmd
}

// backupDatabase copies an existing database file aside and prunes the oldest
// copies beyond max. A missing file is not an error.
func backupDatabase(log *zap.SugaredLogger, dbPath string, now time.Time, max int) error {
	info, err := os.Stat(dbPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", dbPath, err)
	}
	log.Infow("existing database found", "path", dbPath, "bytes", info.Size())

	backupPath := fmt.Sprintf("%s.%s%s", dbPath, now.Format("20060102-150405"), backupFileExt)
	if err := copyFile(dbPath, backupPath); err != nil {
		return fmt.Errorf("failed to create DB backup: %w", err)
	}
	log.Infow("database backed up", "backup", backupPath)
	pruneOldBackups(log, dbPath, max)
	return nil
}

func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := destination.ReadFrom(source); err != nil {
		_ = destination.Close()
		return err
	}
	return destination.Close()
}

func pruneOldBackups(log *zap.SugaredLogger, dbPath string, max int) {
	dir := filepath.Dir(dbPath)
	prefix := filepath.Base(dbPath) + "."
	files, err := os.ReadDir(dir)
	if err != nil {
		log.Warnw("failed to read backup directory", "dir", dir, "error", err)
		return
	}

	var backups []string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), backupFileExt) {
			backups = append(backups, filepath.Join(dir, f.Name()))
		}
	}
	if max < 1 || len(backups) <= max {
		return
	}

	// timestamped names sort chronologically
	sort.Strings(backups)
	for _, file := range backups[:len(backups)-max] {
		if err := os.Remove(file); err != nil {
			log.Warnw("failed to remove old backup", "path", file, "error", err)
			continue
		}
		log.Infow("removed old backup", "path", file)
	}
}
