package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setenv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{envHTTPPort, envPort, envServiceName, envLogLevel, envDebugPort, envConsulHost, envShutdownTimeout} {
		setenv(t, key, "")
	}

	cfg := loadConfig(log.NewNopLogger())
	assert.Equal(t, "addsvc", cfg.serviceName)
	assert.Equal(t, "gokitadder", cfg.nameSpace)
	assert.Equal(t, "info", cfg.logLevel)
	assert.Equal(t, "3000", cfg.httpPort)
	assert.Equal(t, "0.0.0.0", cfg.bindHost)
	assert.Equal(t, "8182", cfg.debugPort)
	assert.Equal(t, "", cfg.consulHost)
	assert.Equal(t, 10*time.Second, cfg.shutdownTimeout)
}

func TestLoadConfig_PortFallback(t *testing.T) {
	setenv(t, envHTTPPort, "")
	setenv(t, envPort, "4000")
	assert.Equal(t, "4000", loadConfig(log.NewNopLogger()).httpPort)

	setenv(t, envHTTPPort, "5000")
	assert.Equal(t, "5000", loadConfig(log.NewNopLogger()).httpPort)
}

func TestLoadConfig_BadShutdownTimeout(t *testing.T) {
	setenv(t, envShutdownTimeout, "soon")

	var buf bytes.Buffer
	cfg := loadConfig(log.NewLogfmtLogger(&buf))
	assert.Equal(t, 10*time.Second, cfg.shutdownTimeout)
	assert.Contains(t, buf.String(), "level=error")
}

func TestLevelOption(t *testing.T) {
	tests := []struct {
		level   string
		logged  []string
		dropped []string
	}{
		{level: "debug", logged: []string{"debug", "info", "error"}},
		{level: "info", logged: []string{"info", "error"}, dropped: []string{"debug"}},
		{level: "WARN", logged: []string{"warn", "error"}, dropped: []string{"info"}},
		{level: "error", logged: []string{"error"}, dropped: []string{"warn"}},
		{level: "bogus", logged: []string{"info"}, dropped: []string{"debug"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := level.NewFilter(log.NewLogfmtLogger(&buf), levelOption(tt.level))
			level.Debug(logger).Log("m", "debug")
			level.Info(logger).Log("m", "info")
			level.Warn(logger).Log("m", "warn")
			level.Error(logger).Log("m", "error")

			for _, m := range tt.logged {
				assert.Contains(t, buf.String(), "m="+m)
			}
			for _, m := range tt.dropped {
				assert.NotContains(t, buf.String(), "m="+m)
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	cfg := loadConfig(log.NewNopLogger())
	zipkinTracer, rep, err := newZipkinTracer(config{serviceName: "addsvc", serviceHost: "localhost", httpPort: "3000"}, log.NewNopLogger())
	require.NoError(t, err)
	defer rep.Close()

	h := NewServer(cfg, zipkinTracer, log.NewNopLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sum/5/3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"firstNumber":5,"secondNumber":3,"sum":8}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newDebugHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), cfg.nameSpace+"_"+cfg.serviceName+"_request_count")
}

func TestRegisterConsul_Disabled(t *testing.T) {
	deregister := registerConsul(config{}, log.NewNopLogger())
	require.NotNil(t, deregister)
	deregister()
}
