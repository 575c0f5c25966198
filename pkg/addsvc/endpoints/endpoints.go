package endpoints

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"

	"github.com/cage1016/gokitadder/pkg/addsvc/service"
)

// TimestampLayout is the ISO-8601 layout of the health check timestamp,
// millisecond precision in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Endpoints collects all of the endpoints that compose the addsvc service. It's
// meant to be used as a helper struct, to collect all of the endpoints into a
// single parameter.
type Endpoints struct {
	SumEndpoint    endpoint.Endpoint
	HealthEndpoint endpoint.Endpoint
}

// New return a new instance of the endpoint that wraps the provided service.
func New(svc service.AdderService, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) (ep Endpoints) {
	var sumEndpoint endpoint.Endpoint
	{
		method := "sum"
		sumEndpoint = MakeSumEndpoint(svc)
		sumEndpoint = opentracing.TraceServer(otTracer, method)(sumEndpoint)
		sumEndpoint = zipkin.TraceEndpoint(zipkinTracer, method)(sumEndpoint)
		sumEndpoint = LoggingMiddleware(log.With(logger, "method", method))(sumEndpoint)
		sumEndpoint = InstrumentingMiddleware(duration.With("method", method))(sumEndpoint)
		ep.SumEndpoint = sumEndpoint
	}

	var healthEndpoint endpoint.Endpoint
	{
		method := "health"
		healthEndpoint = MakeHealthEndpoint(time.Now)
		healthEndpoint = InstrumentingMiddleware(duration.With("method", method))(healthEndpoint)
		ep.HealthEndpoint = healthEndpoint
	}

	return ep
}

// MakeSumEndpoint returns an endpoint that validates the raw segments and
// invokes Sum on the service. Primarily useful in a server.
func MakeSumEndpoint(svc service.AdderService) (ep endpoint.Endpoint) {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(SumRequest)
		pair, err := req.validate()
		if err != nil {
			return SumResponse{}, err
		}
		rs, err := svc.Sum(ctx, pair)
		if err != nil {
			return SumResponse{}, err
		}
		return SumResponse{
			FirstNumber:  pair.First(),
			SecondNumber: pair.Second(),
			Sum:          rs,
		}, nil
	}
}

// MakeHealthEndpoint returns an endpoint that reports the service as healthy
// along with the current time.
func MakeHealthEndpoint(now func() time.Time) (ep endpoint.Endpoint) {
	return func(_ context.Context, _ interface{}) (interface{}, error) {
		return HealthResponse{
			Status:    "healthy",
			Timestamp: now().UTC().Format(TimestampLayout),
		}, nil
	}
}

// Sum implements the service interface, so Endpoints may be used as a service.
// This is primarily useful in the context of a client library.
func (e Endpoints) Sum(ctx context.Context, pair service.ValidatedPair) (rs float64, err error) {
	resp, err := e.SumEndpoint(ctx, SumRequest{I: FormatNumber(pair.First()), J: FormatNumber(pair.Second())})
	if err != nil {
		return
	}
	response := resp.(SumResponse)
	return response.Sum, nil
}

// FormatNumber renders f in the shortest form that parses back to the same
// float64.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
