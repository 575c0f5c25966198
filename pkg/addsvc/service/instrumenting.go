package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics"
)

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           AdderService
}

// InstrumentingMiddleware returns a service middleware that counts calls and
// observes their latency, labelled by method and outcome.
func InstrumentingMiddleware(requestCount metrics.Counter, requestLatency metrics.Histogram) Middleware {
	return func(next AdderService) AdderService {
		return instrumentingMiddleware{
			requestCount:   requestCount,
			requestLatency: requestLatency,
			next:           next,
		}
	}
}

func (im instrumentingMiddleware) Sum(ctx context.Context, pair ValidatedPair) (rs float64, err error) {
	defer func(begin time.Time) {
		lvs := []string{"method", "Sum", "success", fmt.Sprint(err == nil)}
		im.requestCount.With(lvs...).Add(1)
		im.requestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
	}(time.Now())

	return im.next.Sum(ctx, pair)
}
