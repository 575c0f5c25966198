package endpoints

import (
	"github.com/cage1016/gokitadder/pkg/addsvc/service"
)

// SumRequest collects the raw path segments for the Sum method.
type SumRequest struct {
	I string `json:"i"`
	J string `json:"j"`
}

func (r SumRequest) validate() (service.ValidatedPair, error) {
	return service.ParsePair(r.I, r.J)
}

// HealthRequest carries nothing; the health check takes no input.
type HealthRequest struct{}
