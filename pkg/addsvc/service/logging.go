package service

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

type loggingMiddleware struct {
	logger log.Logger
	next   AdderService
}

// LoggingMiddleware takes a logger as a dependency
// and returns a ServiceMiddleware.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next AdderService) AdderService {
		return loggingMiddleware{level.Info(logger), next}
	}
}

func (lm loggingMiddleware) Sum(ctx context.Context, pair ValidatedPair) (rs float64, err error) {
	defer func(begin time.Time) {
		lm.logger.Log("method", "Sum", "a", pair.First(), "b", pair.Second(), "rs", rs, "err", err, "took", time.Since(begin))
	}(time.Now())

	return lm.next.Sum(ctx, pair)
}
