package transports

import (
	"fmt"
	"io"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/sd"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/go-kit/kit/sd/lb"
	"github.com/hashicorp/consul/api"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"

	"github.com/cage1016/gokitadder/pkg/addsvc/endpoints"
	"github.com/cage1016/gokitadder/pkg/addsvc/service"
)

// NewConsulClient connects to the Consul agent at addr and wraps it in the
// go-kit sd client.
func NewConsulClient(addr string) (consulsd.Client, error) {
	cfg := api.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	c, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return consulsd.NewClient(c), nil
}

// NewRegistration describes one addsvc instance to Consul. Consul polls the
// instance's /health route.
func NewRegistration(serviceName, host string, port int, tags []string) *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", serviceName, host, port),
		Name:    serviceName,
		Address: host,
		Port:    port,
		Tags:    tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", host, port),
			Interval:                       "10s",
			Timeout:                        "1s",
			DeregisterCriticalServiceAfter: "1m",
			Notes:                          "addsvc health check",
		},
	}
}

// NewConsulRegistrar returns a registrar for reg. Call Register once the HTTP
// listener is up and Deregister on shutdown.
func NewConsulRegistrar(client consulsd.Client, reg *api.AgentServiceRegistration, logger log.Logger) *consulsd.Registrar {
	return consulsd.NewRegistrar(client, reg, logger)
}

// NewConsulInstancer watches the passing instances of serviceName.
func NewConsulInstancer(client consulsd.Client, serviceName string, tags []string, logger log.Logger) *consulsd.Instancer {
	return consulsd.NewInstancer(client, logger, serviceName, tags, true)
}

// NewDiscoveryClient returns an AdderService that load balances Sum calls
// round-robin over the instances published by instancer, retrying up to
// retryMax times within retryTimeout.
func NewDiscoveryClient(instancer sd.Instancer, retryMax int, retryTimeout time.Duration, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) service.AdderService {
	factory := sumFactory(endpoints.MakeSumEndpoint, otTracer, zipkinTracer, logger)
	endpointer := sd.NewEndpointer(instancer, factory, logger)
	balancer := lb.NewRoundRobin(endpointer)
	return endpoints.Endpoints{
		SumEndpoint: lb.Retry(retryMax, retryTimeout, balancer),
	}
}

func sumFactory(makeEndpoint func(service.AdderService) endpoint.Endpoint, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) sd.Factory {
	return func(instance string) (endpoint.Endpoint, io.Closer, error) {
		svc, err := NewHTTPClient(instance, otTracer, zipkinTracer, logger)
		if err != nil {
			return nil, nil, err
		}
		return makeEndpoint(svc), nil, nil
	}
}
