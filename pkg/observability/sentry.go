package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/socialgraph/config"
)

// InitSentry 配置了 DSN 才启用；返回的 flush 在进程退出前调用
func InitSentry(cfg config.SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}
