package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/results-app/pkg/config"
	"github.com/noah-isme/results-app/pkg/middleware/requestid"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := baseConfig(cfg)
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, err
		}
		zapCfg.OutputPaths = []string{cfg.Log.File}
		zapCfg.ErrorOutputPaths = []string{cfg.Log.File}
	}
	return zapCfg.Build()
}

// NewFile builds a logger that never writes to the terminal. The terminal UI
// owns stdout/stderr while it runs, so logs go to path or are discarded.
func NewFile(cfg *config.Config, path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	scoped := *cfg
	scoped.Log.File = path
	return New(&scoped)
}

func baseConfig(cfg *config.Config) zap.Config {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapCfg
}

func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		reqID := requestid.Value(c)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}

		l.Info("http_request", fields...)
	}
}
