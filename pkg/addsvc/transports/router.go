package transports

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
)

type notFoundWrapper struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TransportRouter owns the public route table. Anything that does not match a
// registered method and path falls through to a JSON 404.
type TransportRouter struct {
	Router *mux.Router
	logger log.Logger
}

// NewHandlerBuilder returns a router with the 404 fallthrough installed. Paths
// are matched as sent: no cleaning, no redirects, and a method mismatch is
// reported as not found rather than 405.
func NewHandlerBuilder(logger log.Logger) TransportRouter {
	r := mux.NewRouter()
	r.SkipClean(true)
	r.NotFoundHandler = http.HandlerFunc(NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(NotFound)

	return TransportRouter{Router: r, logger: logger}
}

// AddRoute registers h for GET (and HEAD) on the given path template.
func (tr TransportRouter) AddRoute(path string, h http.Handler) {
	tr.Router.Methods(http.MethodGet, http.MethodHead).Path(path).Handler(h)
}

// Handler returns the router wrapped in the panic safety net.
func (tr TransportRouter) Handler() http.Handler {
	return recoverMiddleware(tr.logger)(tr.Router)
}

// NotFound answers any unmatched request.
func NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(notFoundWrapper{
		Error:   "Not Found",
		Message: fmt.Sprintf("Route %s %s not found", r.Method, r.URL.RequestURI()),
	})
}

type internalErrorWrapper struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// recoverMiddleware keeps a panicking handler from taking the connection (or
// the process) down with it. Only the affected request sees a 500.
func recoverMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					level.Error(logger).Log("msg", "Unhandled error", "method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(rec))
					w.Header().Set("Content-Type", contentType)
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(internalErrorWrapper{
						Error:   "Internal Server Error",
						Message: "An unexpected error occurred",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
