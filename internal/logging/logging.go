package logging

import (
	"io"
	"os"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marcella-castro/check-pesquisa-mj/internal/gelf"
)

const serviceName = "check-pesquisa-mj"

// Options selects the log level and optional sinks.
type Options struct {
	Development bool
	GelfAddr    string
	// Output defaults to stdout.
	Output io.Writer
}

// New builds an ECS logger, tees it into GELF when configured and installs
// it as the zap global. The returned function flushes and closes sinks.
func New(opts Options) (*zap.Logger, func()) {
	level := zap.InfoLevel
	if opts.Development {
		level = zap.DebugLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	cores := []zapcore.Core{ecszap.NewCore(ecszap.NewDefaultEncoderConfig(), zapcore.AddSync(out), level)}

	var gw *gelf.Writer
	if opts.GelfAddr != "" {
		var err error
		gw, err = gelf.New(opts.GelfAddr, serviceName)
		if err != nil {
			defer zap.S().Warnw("GELF init failed", "addr", opts.GelfAddr, "error", err)
		} else {
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(gelfEncoderConfig()), gw, level))
		}
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	if gw != nil {
		zap.S().Infow("GELF logging enabled", "addr", opts.GelfAddr)
	}

	return logger, func() {
		_ = logger.Sync()
		if gw != nil {
			_ = gw.Close()
		}
	}
}

func gelfEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.MessageKey = gelf.KeyMessage
	cfg.LevelKey = gelf.KeyLevel
	cfg.TimeKey = gelf.KeyTime
	cfg.EncodeTime = zapcore.EpochTimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.StacktraceKey = "stacktrace"
	return cfg
}
