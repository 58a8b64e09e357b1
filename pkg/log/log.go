package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const TimeLayout = "2006-01-02 15:04:05"

// InitLog builds the console logger. Every line is rendered as
// "<timestamp> [<LEVEL>] <message>" and written to stdout plus any extra
// output paths (files are opened in append mode).
func InitLog(lvl zap.AtomicLevel, outputPaths ...string) *zap.Logger {
	loggerCfg := &zap.Config{
		Level:    lvl,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "severity",
			MessageKey:       "message",
			StacktraceKey:    "stacktrace",
			LineEnding:       zapcore.DefaultLineEnding,
			ConsoleSeparator: " ",
			EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
			EncodeLevel:      BracketLevelEncoder,
			EncodeDuration:   zapcore.MillisDurationEncoder,
		},
		OutputPaths:      append([]string{"stdout"}, outputPaths...),
		ErrorOutputPaths: []string{"stderr"},
	}

	plain, err := loggerCfg.Build(zap.AddStacktrace(zap.DPanicLevel))
	if err != nil {
		panic(err)
	}

	return plain
}

// BracketLevelEncoder renders levels as [INFO], [WARN], [ERROR].
func BracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// ParseLevel falls back to info for unknown or empty levels.
func ParseLevel(level string) zap.AtomicLevel {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return lvl
}
