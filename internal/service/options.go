package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/socialgraph/internal/service")

var (
	ErrFollowSelf        = apperr.Validation("cannot follow self")
	ErrFriendRequestSelf = apperr.Validation("cannot send friend request to self")
	ErrEmptyUserID       = apperr.Validation("user id must not be blank")
	ErrEmptyTag          = apperr.Validation("tag must not be blank")

	ErrFriendRequestNotFound = apperr.NotFound("friend request not found")
)

// Options 引擎参数
type Options struct {
	TrendingWindow    time.Duration
	TrendingMinUses   int
	RequestTTL        time.Duration
	EnforceExpiry     bool
	DegradeAggregates bool
	DefaultLimit      int
	MaxLimit          int
	// Now 可替换的时钟，默认 time.Now().UTC()
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		TrendingWindow:    7 * 24 * time.Hour,
		TrendingMinUses:   3,
		RequestTTL:        7 * 24 * time.Hour,
		EnforceExpiry:     true,
		DegradeAggregates: true,
		DefaultLimit:      10,
		MaxLimit:          100,
	}
}

func OptionsFromConfig(c config.EngineConfig) Options {
	return Options{
		TrendingWindow:    c.TrendingWindow,
		TrendingMinUses:   c.TrendingMinUses,
		RequestTTL:        c.FriendRequestTTL,
		EnforceExpiry:     c.EnforceRequestExpiry,
		DegradeAggregates: c.DegradeAggregates,
		DefaultLimit:      c.DefaultLimit,
		MaxLimit:          c.MaxLimit,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TrendingWindow <= 0 {
		o.TrendingWindow = d.TrendingWindow
	}
	if o.TrendingMinUses <= 0 {
		o.TrendingMinUses = d.TrendingMinUses
	}
	if o.RequestTTL <= 0 {
		o.RequestTTL = d.RequestTTL
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = d.DefaultLimit
	}
	if o.MaxLimit < o.DefaultLimit {
		o.MaxLimit = d.MaxLimit
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// limit 把调用方的 limit 收敛到 [1, MaxLimit]，<=0 时取 def
func (o Options) limit(n, def int) int {
	if n <= 0 {
		n = def
	}
	if n > o.MaxLimit {
		n = o.MaxLimit
	}
	return n
}

func (o Options) page(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	limit = o.limit(pageSize, o.DefaultLimit)
	return (page - 1) * limit, limit
}

// degrade 聚合读接口在存储故障时可返回空结果而不是报错
func degrade[T any](ctx context.Context, o Options, op string, err error, empty T) (T, error) {
	recordSpanError(ctx, err)
	if o.DegradeAggregates {
		logger.Warn("aggregate read degraded to empty result", zap.String("op", op), zap.Error(err))
		return empty, nil
	}
	return empty, apperr.Unavailable(op, err)
}

func recordSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
