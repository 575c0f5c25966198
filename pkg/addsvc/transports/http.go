package transports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/sd/lb"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cage1016/gokitadder/pkg/addsvc/endpoints"
	"github.com/cage1016/gokitadder/pkg/addsvc/service"
)

const (
	contentType = "application/json; charset=utf-8"

	// MsgInvalidParameters is the fixed body text of a 400 from /sum.
	MsgInvalidParameters = "Invalid number parameters"
	// MsgUnknownError replaces an error that has no text of its own.
	MsgUnknownError = "Unknown error occurred"
)

type errorWrapper struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func JSONErrorDecoder(r *http.Response) error {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return fmt.Errorf("expected JSON formatted error, got Content-Type %s", contentType)
	}
	var w errorWrapper
	if err := json.NewDecoder(r.Body).Decode(&w); err != nil {
		return err
	}
	if r.StatusCode == http.StatusBadRequest && w.Error == MsgInvalidParameters {
		return service.ErrInvalidParameters
	}
	return errors.New(w.Error)
}

// NewHTTPHandler returns a handler that makes a set of endpoints available on
// predefined paths.
func NewHTTPHandler(endpoints endpoints.Endpoints, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) http.Handler {
	// A global zipkin tracing service is fed to each endpoint as ServerOption;
	// the operation name will be the endpoint's http method.
	zipkinServer := zipkin.HTTPServerTrace(zipkinTracer)

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(httpEncodeError),
		httptransport.ServerErrorLogger(logger),
		zipkinServer,
	}

	tr := NewHandlerBuilder(logger)
	tr.AddRoute("/health", httptransport.NewServer(
		endpoints.HealthEndpoint,
		decodeHTTPHealthRequest,
		httptransport.EncodeJSONResponse,
		append(options, httptransport.ServerBefore(opentracing.HTTPToContext(otTracer, "Health", logger)))...,
	))
	tr.AddRoute("/sum/{i}/{j}", httptransport.NewServer(
		endpoints.SumEndpoint,
		decodeHTTPSumRequest,
		httptransport.EncodeJSONResponse,
		append(options, httptransport.ServerBefore(opentracing.HTTPToContext(otTracer, "Sum", logger)))...,
	))
	return tr.Handler()
}

// decodeHTTPSumRequest is a transport/http.DecodeRequestFunc that lifts the
// two path segments into a SumRequest verbatim. Parsing happens in the
// endpoint. Primarily useful in a server.
func decodeHTTPSumRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return endpoints.SumRequest{I: vars["i"], J: vars["j"]}, nil
}

func decodeHTTPHealthRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return endpoints.HealthRequest{}, nil
}

// NewHTTPClient returns an AdderService backed by an HTTP server living at the
// remote instance. We expect instance to come from a service discovery system,
// so likely of the form "host:port". We bake-in certain middlewares,
// implementing the client library pattern.
func NewHTTPClient(instance string, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) (service.AdderService, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	// A single ratelimiter limits the total outgoing QPS from this client to
	// the remote instance; the breaker sits in front of it.
	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))

	zipkinClient := zipkin.HTTPClientTrace(zipkinTracer)

	// global client middlewares
	options := []httptransport.ClientOption{
		zipkinClient,
	}

	var sumEndpoint endpoint.Endpoint
	{
		sumEndpoint = httptransport.NewClient(
			http.MethodGet,
			copyURL(u, "/sum"),
			encodeHTTPSumRequest,
			decodeHTTPSumResponse,
			append(options, httptransport.ClientBefore(opentracing.ContextToHTTP(otTracer, logger)))...,
		).Endpoint()
		sumEndpoint = opentracing.TraceClient(otTracer, "Sum")(sumEndpoint)
		sumEndpoint = zipkin.TraceEndpoint(zipkinTracer, "Sum")(sumEndpoint)
		sumEndpoint = limiter(sumEndpoint)
		sumEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Sum",
			Timeout: 30 * time.Second,
		}))(sumEndpoint)
	}

	// Returning the endpoints as a service.AdderService relies on Endpoints
	// implementing the Service methods.
	return endpoints.Endpoints{SumEndpoint: sumEndpoint}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = strings.TrimRight(base.Path, "/") + path
	return &next
}

// encodeHTTPSumRequest is a transport/http.EncodeRequestFunc that places both
// operands in the request path. Primarily useful in a client.
func encodeHTTPSumRequest(_ context.Context, r *http.Request, request interface{}) (err error) {
	req := request.(endpoints.SumRequest)
	base, rawBase := r.URL.Path, r.URL.EscapedPath()
	r.URL.Path = fmt.Sprintf("%s/%s/%s", base, req.I, req.J)
	r.URL.RawPath = fmt.Sprintf("%s/%s/%s", rawBase, url.PathEscape(req.I), url.PathEscape(req.J))
	return nil
}

// decodeHTTPSumResponse is a transport/http.DecodeResponseFunc that decodes a
// JSON-encoded sum response from the HTTP response body. If the response has a
// non-200 status code, we will interpret that as an error and attempt to decode
// the specific error message from the response body. Primarily useful in a client.
func decodeHTTPSumResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return nil, JSONErrorDecoder(r)
	}
	var resp endpoints.SumResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func httpEncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentType)

	if lberr, ok := err.(lb.RetryError); ok && lberr.Final != nil {
		err = lberr.Final
	}

	switch {
	case errors.Is(err, service.ErrInvalidParameters):
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorWrapper{Error: MsgInvalidParameters})
	default:
		msg := err.Error()
		if msg == "" {
			msg = MsgUnknownError
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorWrapper{Error: msg})
	}
}
