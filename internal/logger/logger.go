// Package logger builds the zap logger used by the commands and carries it
// through a context to the pipeline stages.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/topica/pkg/topica/internalerr"
)

// Options selects the log format and threshold.
type Options struct {
	// Env is "prod" for JSON lines, or "dev", "local" or empty for a
	// colored console.
	Env string
	// Level is debug, info, warn or error. Empty means info in prod and
	// debug otherwise.
	Level string
	// Output receives the log lines. Defaults to stderr.
	Output io.Writer
}

// New builds a logger from opts. Errors are logged with a stack trace.
func New(opts Options) (*zap.Logger, error) {
	var (
		enc   zapcore.Encoder
		level = zapcore.DebugLevel
		extra []zap.Option
	)
	switch strings.ToLower(opts.Env) {
	case "prod", "production":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
		level = zapcore.InfoLevel
	case "dev", "development", "local", "":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
		extra = append(extra, zap.Development())
	default:
		return nil, fmt.Errorf("%w: logging.env %q (want prod, dev or local)", internalerr.ErrInvalidConfig, opts.Env)
	}

	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: logging.level: %v", internalerr.ErrInvalidConfig, err)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(out)), level)
	extra = append(extra, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return zap.New(core, extra...), nil
}
