package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/sd"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go"
	"github.com/openzipkin/zipkin-go/reporter"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"github.com/spf13/cobra"

	"github.com/cage1016/gokitadder/pkg/addsvc/endpoints"
	"github.com/cage1016/gokitadder/pkg/addsvc/service"
	"github.com/cage1016/gokitadder/pkg/addsvc/transports"
)

const (
	defHTTPAddr     = "localhost:3000"
	defServiceName  = "addsvc"
	defRetryMax     = 3
	defRetryTimeout = 500 * time.Millisecond

	envAddsvcURL   = "QS_ADDSVC_URL"
	envConsulAddr  = "QS_CONSUL_ADDR"
	envZipkinV2URL = "QS_ZIPKIN_V2_URL"
)

type options struct {
	httpAddr     string
	consulAddr   string
	serviceName  string
	zipkinURL    string
	retryMax     int
	retryTimeout time.Duration
	jsonOutput   bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "addcli",
		Short: "Client for the addsvc adder service",
		Long: `addcli talks to addsvc over HTTP, either at a fixed address or through
instances discovered in Consul.

Example:
  addcli sum 5 3
  addcli sum --http-addr localhost:8180 -- -2 3
  addcli sum --consul-addr localhost:8500 2.5 1.5`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.httpAddr, "http-addr", env(envAddsvcURL, defHTTPAddr), "addsvc HTTP address (or set "+envAddsvcURL+")")
	flags.StringVar(&opts.consulAddr, "consul-addr", os.Getenv(envConsulAddr), "Consul agent address; overrides --http-addr (or set "+envConsulAddr+")")
	flags.StringVar(&opts.serviceName, "service-name", defServiceName, "service name registered in Consul")
	flags.StringVar(&opts.zipkinURL, "zipkin-url", os.Getenv(envZipkinV2URL), "Zipkin v2 collector URL (or set "+envZipkinV2URL+")")
	flags.IntVar(&opts.retryMax, "retry-max", defRetryMax, "attempts per call when using Consul")
	flags.DurationVar(&opts.retryTimeout, "retry-timeout", defRetryTimeout, "overall call budget when using Consul")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log client activity to stderr")

	rootCmd.AddCommand(newSumCmd(opts))
	return rootCmd
}

func newSumCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sum <i> <j>",
		Short: "Add two numbers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := service.ParsePair(args[0], args[1])
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
			svc, closeFn, err := newClient(opts, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			rs, err := svc.Sum(cmd.Context(), pair)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), pair, rs, opts.jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowError())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func newClient(opts *options, logger log.Logger) (service.AdderService, func(), error) {
	otTracer := stdopentracing.GlobalTracer()

	rep := reporter.NewNoopReporter()
	if opts.zipkinURL != "" {
		rep = zipkinhttp.NewReporter(opts.zipkinURL)
	}
	zipkinTracer, err := zipkin.NewTracer(rep, zipkin.WithNoopTracer(opts.zipkinURL == ""))
	if err != nil {
		rep.Close()
		return nil, nil, err
	}

	if opts.consulAddr == "" {
		svc, err := transports.NewHTTPClient(opts.httpAddr, otTracer, zipkinTracer, logger)
		if err != nil {
			rep.Close()
			return nil, nil, err
		}
		return svc, func() { rep.Close() }, nil
	}

	client, err := transports.NewConsulClient(opts.consulAddr)
	if err != nil {
		rep.Close()
		return nil, nil, err
	}
	var instancer sd.Instancer = transports.NewConsulInstancer(client, opts.serviceName, nil, logger)
	svc := transports.NewDiscoveryClient(instancer, opts.retryMax, opts.retryTimeout, otTracer, zipkinTracer, logger)
	return svc, func() {
		instancer.Stop()
		rep.Close()
	}, nil
}

func printResult(w io.Writer, pair service.ValidatedPair, rs float64, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(endpoints.SumResponse{
			FirstNumber:  pair.First(),
			SecondNumber: pair.Second(),
			Sum:          rs,
		})
	}
	_, err := fmt.Fprintf(w, "%s + %s = %s\n",
		endpoints.FormatNumber(pair.First()),
		endpoints.FormatNumber(pair.Second()),
		endpoints.FormatNumber(rs))
	return err
}

func env(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
