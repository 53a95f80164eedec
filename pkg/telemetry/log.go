// Package telemetry builds the structured zap logger every trusted-core
// component shares.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger's verbosity and an optional file tee.
type Options struct {
	// Level is one of "debug", "info", "warn", "error"; empty means info.
	Level string
	// File, when non-empty, duplicates every entry into the named file in
	// addition to stdout. Parent directories are created as needed.
	File string
}

// New builds a JSON logger writing to stdout, teed into Options.File when
// one is set. Both sinks share one encoder so an operator can diff the
// live stream against the file after the fact.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("telemetry: bad log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), level),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: create log directory: %w", err)
		}
		sink, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("telemetry: open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(sink), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
