package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go"
	"github.com/openzipkin/zipkin-go/reporter"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cage1016/gokitadder/pkg/addsvc/endpoints"
	"github.com/cage1016/gokitadder/pkg/addsvc/service"
	"github.com/cage1016/gokitadder/pkg/addsvc/transports"
)

const (
	defZipkinV2URL     string = ""
	defNameSpace       string = "gokitadder"
	defServiceName     string = "addsvc"
	defLogLevel        string = "info"
	defServiceHost     string = "localhost"
	defBindHost        string = "0.0.0.0"
	defHTTPPort        string = "3000"
	defDebugPort       string = "8182"
	defConsulHost      string = ""
	defConsulPort      string = "8500"
	defShutdownTimeout string = "10" // time.Second
	envZipkinV2URL     string = "QS_ZIPKIN_V2_URL"
	envNameSpace       string = "QS_ADDSVC_NAMESPACE"
	envServiceName     string = "QS_ADDSVC_SERVICE_NAME"
	envLogLevel        string = "QS_ADDSVC_LOG_LEVEL"
	envServiceHost     string = "QS_ADDSVC_SERVICE_HOST"
	envBindHost        string = "QS_ADDSVC_BIND_HOST"
	envHTTPPort        string = "QS_ADDSVC_HTTP_PORT"
	envPort            string = "PORT"
	envDebugPort       string = "QS_ADDSVC_DEBUG_PORT"
	envConsulHost      string = "QS_CONSUL_HOST"
	envConsulPort      string = "QS_CONSUL_PORT"
	envShutdownTimeout string = "QS_ADDSVC_SHUTDOWN_TIMEOUT"
)

type config struct {
	nameSpace       string
	serviceName     string
	logLevel        string
	serviceHost     string
	bindHost        string
	httpPort        string
	debugPort       string
	zipkinV2URL     string
	consulHost      string
	consulPort      string
	shutdownTimeout time.Duration
}

// Env reads specified environment variable. If no value has been found,
// fallback is returned.
func env(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	}
	cfg := loadConfig(logger)
	{
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger = level.NewFilter(logger, levelOption(cfg.logLevel))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
		logger = log.With(logger, "service", cfg.serviceName)
	}

	zipkinTracer, rep, err := newZipkinTracer(cfg, logger)
	if err != nil {
		level.Error(logger).Log("tracer", "Zipkin", "err", err)
		os.Exit(1)
	}
	defer rep.Close()

	errs := make(chan error, 3)
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.bindHost, cfg.httpPort),
		Handler: NewServer(cfg, zipkinTracer, logger),
	}
	go startHTTPServer(cfg, httpServer, logger, errs)

	var debugServer *http.Server
	if cfg.debugPort != "" {
		debugServer = &http.Server{
			Addr:    net.JoinHostPort(cfg.bindHost, cfg.debugPort),
			Handler: newDebugHandler(),
		}
		go startDebugServer(cfg, debugServer, logger, errs)
	}

	deregister := registerConsul(cfg, logger)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	err = <-errs
	level.Info(logger).Log("serviceName", cfg.serviceName, "terminated", err)

	deregister()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		level.Error(logger).Log("msg", "error during server shutdown", "err", err)
		return
	}
	level.Info(logger).Log("msg", "server closed successfully")
}

func loadConfig(logger log.Logger) (cfg config) {
	shutdownTimeout, err := strconv.ParseInt(env(envShutdownTimeout, defShutdownTimeout), 10, 0)
	if err != nil || shutdownTimeout <= 0 {
		level.Error(logger).Log("envShutdownTimeout", envShutdownTimeout, "error", err)
		shutdownTimeout, _ = strconv.ParseInt(defShutdownTimeout, 10, 0)
	}

	cfg.nameSpace = env(envNameSpace, defNameSpace)
	cfg.serviceName = env(envServiceName, defServiceName)
	cfg.logLevel = env(envLogLevel, defLogLevel)
	cfg.serviceHost = env(envServiceHost, defServiceHost)
	cfg.bindHost = env(envBindHost, defBindHost)
	cfg.httpPort = env(envHTTPPort, env(envPort, defHTTPPort))
	cfg.debugPort = env(envDebugPort, defDebugPort)
	cfg.zipkinV2URL = env(envZipkinV2URL, defZipkinV2URL)
	cfg.consulHost = env(envConsulHost, defConsulHost)
	cfg.consulPort = env(envConsulPort, defConsulPort)
	cfg.shutdownTimeout = time.Duration(shutdownTimeout) * time.Second
	return cfg
}

func levelOption(s string) level.Option {
	switch strings.ToLower(s) {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}

func newZipkinTracer(cfg config, logger log.Logger) (*zipkin.Tracer, reporter.Reporter, error) {
	var (
		hostPort      = net.JoinHostPort(cfg.serviceHost, cfg.httpPort)
		useNoopTracer = (cfg.zipkinV2URL == "")
		rep           = reporter.NewNoopReporter()
	)
	if !useNoopTracer {
		rep = zipkinhttp.NewReporter(cfg.zipkinV2URL)
	}
	zEP, _ := zipkin.NewEndpoint(cfg.serviceName, hostPort)
	zipkinTracer, err := zipkin.NewTracer(rep, zipkin.WithLocalEndpoint(zEP), zipkin.WithNoopTracer(useNoopTracer))
	if err != nil {
		return nil, rep, err
	}
	if !useNoopTracer {
		logger.Log("tracer", "Zipkin", "type", "Native", "URL", cfg.zipkinV2URL)
	}
	return zipkinTracer, rep, nil
}

// NewServer builds the public HTTP handler. Metrics are registered with the
// default Prometheus registry, so it must be called once per process.
func NewServer(cfg config, zipkinTracer *zipkin.Tracer, logger log.Logger) http.Handler {
	var tracer stdopentracing.Tracer
	{
		tracer = stdopentracing.GlobalTracer()
	}

	fieldKeys := []string{"method", "success"}
	requestCount := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: cfg.nameSpace,
		Subsystem: cfg.serviceName,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, fieldKeys)
	requestLatency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: cfg.nameSpace,
		Subsystem: cfg.serviceName,
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
	}, fieldKeys)
	duration := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: cfg.nameSpace,
		Subsystem: cfg.serviceName,
		Name:      "endpoint_duration_seconds",
		Help:      "Request duration in seconds.",
	}, fieldKeys)

	service := service.New(logger, requestCount, requestLatency)
	endpoints := endpoints.New(service, logger, duration, tracer, zipkinTracer)
	return transports.NewHTTPHandler(endpoints, tracer, zipkinTracer, logger)
}

func newDebugHandler() http.Handler {
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())
	return r
}

func registerConsul(cfg config, logger log.Logger) (deregister func()) {
	deregister = func() {}
	if cfg.consulHost == "" {
		return
	}
	port, err := strconv.Atoi(cfg.httpPort)
	if err != nil {
		level.Error(logger).Log("envHTTPPort", envHTTPPort, "error", err)
		return
	}
	client, err := transports.NewConsulClient(net.JoinHostPort(cfg.consulHost, cfg.consulPort))
	if err != nil {
		level.Error(logger).Log("consul", cfg.consulHost, "err", err)
		return
	}
	registrar := transports.NewConsulRegistrar(client, transports.NewRegistration(cfg.serviceName, cfg.serviceHost, port, []string{cfg.nameSpace}), logger)
	registrar.Register()
	return registrar.Deregister
}

func startHTTPServer(cfg config, server *http.Server, logger log.Logger, errs chan error) {
	base := fmt.Sprintf("http://%s", server.Addr)
	level.Info(logger).Log("serviceName", cfg.serviceName, "protocol", "HTTP", "exposed", cfg.httpPort)
	level.Info(logger).Log("msg", "server running", "url", base, "health", base+"/health", "sum", base+"/sum/:i/:j")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		errs <- err
	}
}

func startDebugServer(cfg config, server *http.Server, logger log.Logger, errs chan error) {
	level.Info(logger).Log("serviceName", cfg.serviceName, "protocol", "HTTP", "debug", cfg.debugPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		errs <- err
	}
}
