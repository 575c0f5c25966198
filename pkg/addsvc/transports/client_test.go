package transports

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cage1016/gokitadder/pkg/addsvc/endpoints"
	"github.com/cage1016/gokitadder/pkg/addsvc/service"
)

func TestHTTPClient_Sum(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, service.NewBasicService(log.NewNopLogger())))
	defer srv.Close()

	otTracer, zipkinTracer := newTracers(t)
	client, err := NewHTTPClient(srv.URL, otTracer, zipkinTracer, log.NewNopLogger())
	require.NoError(t, err)

	tests := []struct {
		i, j string
		want float64
	}{
		{i: "5", j: "3", want: 8},
		{i: "-2", j: "3", want: 1},
		{i: "2.5", j: "1.5", want: 4},
		{i: "1e21", j: "1", want: 1e21 + 1},
		{i: "9007199254740991", j: "0", want: 9007199254740991},
	}

	for _, tt := range tests {
		pair, err := service.ParsePair(tt.i, tt.j)
		require.NoError(t, err)

		rs, err := client.Sum(context.Background(), pair)
		require.NoError(t, err)
		assert.Equal(t, tt.want, rs)
	}
}

func TestHTTPClient_HostPortInstance(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, service.NewBasicService(log.NewNopLogger())))
	defer srv.Close()

	otTracer, zipkinTracer := newTracers(t)
	client, err := NewHTTPClient(strings.TrimPrefix(srv.URL, "http://"), otTracer, zipkinTracer, log.NewNopLogger())
	require.NoError(t, err)

	pair, err := service.ParsePair("40", "2")
	require.NoError(t, err)

	rs, err := client.Sum(context.Background(), pair)
	require.NoError(t, err)
	assert.Equal(t, float64(42), rs)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, stubService{sum: func(service.ValidatedPair) (float64, error) {
		return 0, errors.New("boom")
	}}))
	defer srv.Close()

	otTracer, zipkinTracer := newTracers(t)
	client, err := NewHTTPClient(srv.URL, otTracer, zipkinTracer, log.NewNopLogger())
	require.NoError(t, err)

	_, err = client.Sum(context.Background(), service.ValidatedPair{})
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestEncodeHTTPSumRequest(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "http://localhost:3000/api/sum", nil)
	require.NoError(t, err)

	err = encodeHTTPSumRequest(context.Background(), r, endpoints.SumRequest{I: "1e+21", J: "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/api/sum/1e+21/a/b", r.URL.Path)
	assert.Equal(t, "/api/sum/1e+21/a%2Fb", r.URL.EscapedPath())
}

func TestDecodeHTTPSumResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		ctype   string
		body    string
		want    interface{}
		wantErr error
		errText string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			ctype:  "application/json; charset=utf-8",
			body:   `{"firstNumber":5,"secondNumber":3,"sum":8}`,
			want:   endpoints.SumResponse{FirstNumber: 5, SecondNumber: 3, Sum: 8},
		},
		{
			name:    "invalid parameters",
			status:  http.StatusBadRequest,
			ctype:   "application/json; charset=utf-8",
			body:    `{"error":"Invalid number parameters"}`,
			wantErr: service.ErrInvalidParameters,
		},
		{
			name:    "internal error",
			status:  http.StatusInternalServerError,
			ctype:   "application/json",
			body:    `{"error":"boom"}`,
			errText: "boom",
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			ctype:   "text/html",
			body:    `<html></html>`,
			errText: "expected JSON formatted error, got Content-Type text/html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Header:     http.Header{"Content-Type": []string{tt.ctype}},
				Body:       ioutil.NopCloser(strings.NewReader(tt.body)),
			}
			got, err := decodeHTTPSumResponse(context.Background(), resp)
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr))
			case tt.errText != "":
				require.Error(t, err)
				assert.Equal(t, tt.errText, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCopyURL(t *testing.T) {
	base, err := url.Parse("http://example.com/prefix/")
	require.NoError(t, err)

	next := copyURL(base, "/sum")
	assert.Equal(t, "http://example.com/prefix/sum", next.String())
	assert.Equal(t, "/prefix/", base.Path)
}
