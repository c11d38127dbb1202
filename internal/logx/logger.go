package logx

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment selects the log encoder.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment falls back to Development for unknown values.
func ParseEnvironment(v string) Environment {
	if Environment(strings.ToLower(strings.TrimSpace(v))) == Production {
		return Production
	}
	return Development
}

type Options struct {
	Environment Environment
	Level       string
	// Path of the rotated log file. Empty keeps logging on stderr, which a
	// full-screen program must not use.
	Path string
}

var DefaultOptions = Options{Environment: Development, Level: "info"}

// Init points the global zerolog logger at a rotated file and returns the closer
// for that file.
func Init(opts ...Options) io.Closer {
	o := DefaultOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if o.Path != "" {
		_ = os.MkdirAll(filepath.Dir(o.Path), 0o755)
		rot := &lumberjack.Logger{
			Filename:   o.Path,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		out, closer = rot, rot
	}

	level, err := zerolog.ParseLevel(strings.ToLower(o.Level))
	if err != nil || o.Level == "" {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(out).With().Timestamp()
	if o.Environment != Production {
		l = l.Caller()
	}
	log.Logger = l.Logger().Level(level)
	return closer
}

// Discard silences logging, for tests and headless runs that opt out.
func Discard() {
	log.Logger = zerolog.Nop()
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
