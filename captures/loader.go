package captures

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

/* Loader manages capture routes from captures.yaml
 * Provides in-memory lookup for fast access
 */

// Config represents the structure of captures.yaml
type Config struct {
	Captures []RouteConfig `yaml:"captures"`
}

// RouteConfig represents a single capture route in the YAML file
type RouteConfig struct {
	Path         string   `yaml:"path"`
	Methods      []string `yaml:"methods"`
	StatusCode   int      `yaml:"status_code"` // Default: 200
	ResponseBody string   `yaml:"response_body"`
	ContentType  string   `yaml:"content_type"` // Default: application/json
}

// Loader holds the loaded routes
type Loader struct {
	routes map[string]*Route
}

// NewLoader creates a new route loader
func NewLoader() *Loader {
	return &Loader{
		routes: make(map[string]*Route),
	}
}

// Load reads and parses the captures file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading captures file: %w", err)
	}
	return l.Parse(data)
}

// LoadOrDefault loads filePath, falling back to the default route when it does not exist
func (l *Loader) LoadOrDefault(filePath string) error {
	err := l.Load(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		l.routes = map[string]*Route{}
		return l.add(Default())
	}
	return err
}

// Parse loads routes from YAML content
func (l *Loader) Parse(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing captures YAML: %w", err)
	}
	if len(config.Captures) == 0 {
		return fmt.Errorf("captures file declares no routes")
	}

	for _, rc := range config.Captures {
		statusCode := rc.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		contentType := rc.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		methods := make([]string, 0, len(rc.Methods))
		for _, m := range rc.Methods {
			methods = append(methods, strings.ToUpper(strings.TrimSpace(m)))
		}

		route := &Route{
			Path:         strings.TrimSpace(rc.Path),
			Methods:      methods,
			StatusCode:   statusCode,
			ResponseBody: rc.ResponseBody,
			ContentType:  contentType,
		}
		if err := l.add(route); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) add(route *Route) error {
	if err := route.Validate(); err != nil {
		return fmt.Errorf("validating route: %w", err)
	}
	if _, exists := l.routes[route.Path]; exists {
		return fmt.Errorf("validating route: duplicate path %s", route.Path)
	}
	l.routes[route.Path] = route
	return nil
}

// Get retrieves a route by its path
func (l *Loader) Get(path string) (*Route, error) {
	route, exists := l.routes[path]
	if !exists {
		return nil, fmt.Errorf("route not found: %s", path)
	}
	return route, nil
}

// List returns all loaded routes ordered by path
func (l *Loader) List() []*Route {
	routes := make([]*Route, 0, len(l.routes))
	for _, route := range l.routes {
		routes = append(routes, route)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes
}
