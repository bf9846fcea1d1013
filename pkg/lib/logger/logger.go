package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"cartstore/pkg/config"
	"cartstore/pkg/lib/logger/handler/slogpretty"
)

// SetupLogger builds the process logger for env: coloured text locally,
// JSON elsewhere.
func SetupLogger(env string) (*slog.Logger, error) {
	return setupLogger(env, os.Stdout)
}

func setupLogger(env string, out io.Writer) (*slog.Logger, error) {
	switch env {
	case config.EnvLocal:
		return setupPrettySlog(out), nil
	case config.EnvDev:
		return setupJSONSlog(out, slog.LevelDebug), nil
	case config.EnvProd:
		return setupJSONSlog(out, slog.LevelInfo), nil
	default:
		return nil, fmt.Errorf("failed to init logger: unknown env %q", env)
	}
}

func setupJSONSlog(out io.Writer, level slog.Level) *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}),
	).With(slog.String("service", "cartstore"))
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	return slog.New(opts.NewPrettyHandler(out))
}
