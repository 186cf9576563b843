package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"

	"github.com/cospark/hubspot-proxy/internal/cfg"
	"github.com/cospark/hubspot-proxy/internal/contacthttp"
	"github.com/cospark/hubspot-proxy/internal/httpserver"
	"github.com/cospark/hubspot-proxy/internal/hubspot"
	"github.com/cospark/hubspot-proxy/internal/log"
	"github.com/cospark/hubspot-proxy/internal/metrics"
	"github.com/cospark/hubspot-proxy/internal/opshttp"
	"github.com/cospark/hubspot-proxy/internal/otelx"
	"github.com/cospark/hubspot-proxy/internal/probe"
	"github.com/cospark/hubspot-proxy/internal/prof"
	"github.com/cospark/hubspot-proxy/internal/secrets"
	v "github.com/cospark/hubspot-proxy/internal/version"
)

const appName = "cospark-hubspot-proxy"

func main() {
	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	// Parse config from flags and env
	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf(
			"%s %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			appName, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		os.Exit(0)
	}

	// Fill in config from environment variables with prefix COSPARK_ and validate
	cfg.FillFromEnv(flag.CommandLine, "COSPARK_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// Setup logging
	lvl, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v\n", conf.LogLevel, err)
		os.Exit(1)
	}
	stLvl, err := log.ParseLevel(conf.StacktraceLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid stacktrace level %s: %v\n", conf.StacktraceLevel, err)
		os.Exit(1)
	}
	lg, err := log.New(log.Options{
		App:               appName,
		Version:           vi.Version,
		Commit:            vi.Commit,
		BuildId:           vi.BuildId,
		Level:             lvl,
		StacktraceLevel:   stLvl,
		JsonFormat:        conf.LogJSON,
		MaxErrorLinks:     conf.MaxErrorLinks,
		IncludeErrorLinks: conf.IncludeErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer lg.Sync()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	// The HubSpot token stays out of this line on purpose.
	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_id", vi.BuildId,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"otlp_endpoint", conf.OTLPEndpoint,
		"pyro_server", conf.PyroServer,
		"pyro_tenant", conf.PyroTenantID,
		"trace_sample", conf.TraceSample,
		"allowed_origins", conf.AllowedOrigins,
		"hubspot_base_url", conf.HubSpotBaseURL,
		"hubspot_token_ssm_param", conf.HubSpotTokenSSMParam,
	)

	// Setup pyroscope profiling
	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       appName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"app":       appName,
			"component": "server",
			"version":   vi.Version,
			"commit":    vi.Commit,
			"build_id":  vi.BuildId,
			"source":    "go-agent",
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	defer func() { stopProf() }()

	// Setup otel for tracing
	// Insecure is true because we only write to a collector on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   appName,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	// Setup metrics
	m := metrics.New()
	m.SetBuildInfoFromVersion(appName, "server", vi)
	m.SetProfilingActive(conf.EnablePyroscope)

	// Resolve the HubSpot credential. SSM wins over the inline token so
	// deployments never have to put the secret in the unit file.
	token := conf.HubSpotToken
	if conf.HubSpotTokenSSMParam != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			L.Error(ctx, err, "failed to load AWS config")
			os.Exit(1)
		}
		resolver, err := secrets.NewResolver(secrets.ResolverOptions{
			Client: ssm.NewFromConfig(awsCfg),
			Logger: L,
		})
		if err != nil {
			L.Error(ctx, err, "failed to create secret resolver")
			os.Exit(1)
		}
		token, err = resolver.Fetch(ctx, conf.HubSpotTokenSSMParam)
		if err != nil {
			L.Error(ctx, err, "failed to fetch HubSpot token from SSM")
			os.Exit(1)
		}
	}

	crm, err := hubspot.New(hubspot.Options{
		BaseURL: conf.HubSpotBaseURL,
		Token:   token,
		Logger:  L.With("component", "hubspot"),
		Observe: m.ObserveHubSpot,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create hubspot client")
		os.Exit(1)
	}

	api := contacthttp.NewAPI(contacthttp.Options{
		Upserter:           crm,
		Logger:             L.With("component", "contacts"),
		OnValidationFailed: m.IncValidationFailed,
		OnUpsert:           m.IncUpsert,
	})

	// setup toggle for server shutdown
	var gate probe.ShutdownGate
	readiness := probe.Multi(gate.Probe())

	// start public proxy listener
	proxyStop, err := httpserver.Start(ctx, &httpserver.Options{
		Logger:         L,
		Port:           conf.HTTPPort,
		UseRecoverMW:   true,
		OnPanic:        m.IncHttpPanic,
		AllowedOrigins: conf.Origins(),
		OnCORSDenied: func(origin string) {
			m.IncCORSDenied()
			L.Warn(ctx, "origin denied", "origin", origin)
		},
		APIRoutes: api.RegisterRoutes,
		MetricsMW: m.Middleware,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start proxy http listener")
		os.Exit(1)
	}
	defer func() { _ = proxyStop(context.Background()) }()

	// start admin/ops listener for metrics, health checks and pprof
	// never exposed publicly; the origin gate does not apply here
	opsStop, err := opshttp.Start(ctx, L, opshttp.Options{
		Port:         conf.AdminPort,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       probe.Static(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsStop(context.Background()) }()

	// block until ctrl+c / sigterm
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	L.Info(context.Background(), "shutdown signal received")

	// fail readiness so the load balancer stops sending new requests
	gate.Set("draining")
	L.Info(context.Background(), "shutdown gate closed, draining in-flight requests")

	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(10 * time.Second):
		L.Info(context.Background(), "drain period complete")
	case <-forceCh:
		L.Warn(context.Background(), "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	if err := proxyStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "proxy http server shutdown")
	}
	if err := opsStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "otel shutdown")
	}
	stopProf()

	L.Info(context.Background(), "shutdown complete")
}
