package endpoints

import (
	"net/http"

	httptransport "github.com/go-kit/kit/transport/http"
)

var (
	_ httptransport.Headerer = (*SumResponse)(nil)

	_ httptransport.StatusCoder = (*SumResponse)(nil)

	_ httptransport.Headerer = (*HealthResponse)(nil)

	_ httptransport.StatusCoder = (*HealthResponse)(nil)
)

// SumResponse collects the response values for the Sum method. The operands
// are the parsed numbers, not the raw path segments.
type SumResponse struct {
	FirstNumber  float64 `json:"firstNumber"`
	SecondNumber float64 `json:"secondNumber"`
	Sum          float64 `json:"sum"`
}

func (r SumResponse) StatusCode() int {
	return http.StatusOK
}

func (r SumResponse) Headers() http.Header {
	return http.Header{}
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (r HealthResponse) StatusCode() int {
	return http.StatusOK
}

func (r HealthResponse) Headers() http.Header {
	return http.Header{"Cache-Control": []string{"no-store"}}
}
