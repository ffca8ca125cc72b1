// Package logsetup configures the standard logger. Import it for side effects.
package logsetup

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

func init() {
	// journald adds its own timestamps
	if os.Getenv("JOURNAL_STREAM") != "" {
		log.SetFlags(0)
		return
	}
	log.SetFlags(log.LstdFlags)
}

// FileConfig describes a rotated log file.
type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max-size"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAgeDays int    `mapstructure:"max-age"`
	Compress   bool   `mapstructure:"compress"`
}

// ToFile sends log output to the current log writer and to the rotated file
// described by cfg. Closing the result closes the file and restores the
// previous writer. Nothing changes when cfg.Path is empty.
func ToFile(cfg FileConfig) io.Closer {
	if cfg.Path == "" {
		return nopCloser{}
	}

	prev := log.Writer()
	w := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(prev, w))
	log.SetFlags(log.LstdFlags)
	return &fileCloser{file: w, prev: prev}
}

type fileCloser struct {
	file *lumberjack.Logger
	prev io.Writer
}

func (c *fileCloser) Close() error {
	log.SetOutput(c.prev)
	return c.file.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
