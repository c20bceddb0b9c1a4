package captures

import (
	"fmt"
	"net/http"
	"strings"
)

/* Route declares a path on which inbound requests are captured
 * and what the caller gets back once the request is stored
 */
type Route struct {
	Path         string
	Methods      []string // empty means any method
	StatusCode   int      // status recorded and returned (default: 200)
	ResponseBody string   // optional fixed body; default is {"id": "<webhook id>"}
	ContentType  string   // Content-Type of ResponseBody (default: application/json)
}

// reserved prefixes belong to the inspection API and operational endpoints
var reserved = []string{"/api", "/health", "/metrics"}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Validate checks if the route configuration is valid
func (r *Route) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("path must start with / (got %s)", r.Path)
	}
	if r.Path == "/" || r.Path == "/*" {
		return fmt.Errorf("path %s would shadow the inspection API", r.Path)
	}
	for _, prefix := range reserved {
		if r.Path == prefix || strings.HasPrefix(r.Path, prefix+"/") {
			return fmt.Errorf("path %s is reserved", r.Path)
		}
	}
	if i := strings.Index(r.Path, "*"); i >= 0 && i != len(r.Path)-1 {
		return fmt.Errorf("wildcard is only allowed at the end of path %s", r.Path)
	}
	for _, m := range r.Methods {
		if !knownMethods[strings.ToUpper(m)] {
			return fmt.Errorf("unknown method %s for path %s", m, r.Path)
		}
	}
	if r.StatusCode < 200 || r.StatusCode > 599 {
		return fmt.Errorf("status_code must be between 200 and 599 for path %s (got %d)", r.Path, r.StatusCode)
	}
	return nil
}

// Allows reports whether method may be captured on this route
func (r *Route) Allows(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// Default is the route used when no captures file exists
func Default() *Route {
	return &Route{
		Path:        "/stripe/events",
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
	}
}
