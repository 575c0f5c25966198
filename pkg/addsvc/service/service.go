package service

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
)

// Middleware describes a service (as opposed to endpoint) middleware.
type Middleware func(AdderService) AdderService

// AdderService describes a service that adds two numbers together.
// Inputs arrive already validated; see ParsePair.
type AdderService interface {
	Sum(ctx context.Context, pair ValidatedPair) (rs float64, err error)
}

// the concrete implementation of service interface
type stubAdderService struct {
	logger log.Logger
}

// New return a new instance of the service wrapped in the logging and
// instrumenting middlewares.
func New(logger log.Logger, requestCount metrics.Counter, requestLatency metrics.Histogram) (s AdderService) {
	var svc AdderService
	{
		svc = NewBasicService(logger)
		svc = LoggingMiddleware(logger)(svc)
		svc = InstrumentingMiddleware(requestCount, requestLatency)(svc)
	}
	return svc
}

// NewBasicService returns the bare service with no middlewares.
func NewBasicService(logger log.Logger) AdderService {
	return &stubAdderService{logger: logger}
}

// Sum returns the IEEE-754 double sum of the pair. The pair is trusted to be
// finite.
func (ad *stubAdderService) Sum(_ context.Context, pair ValidatedPair) (rs float64, err error) {
	return pair.First() + pair.Second(), nil
}
