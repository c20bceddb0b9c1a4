package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marcelsud/webhook-inspector/captures"
)

/* validate-captures - Standalone CLI tool to validate captures.yaml
 * Usage: go run cmd/validate-captures/main.go [captures.yaml] [path...]
 * Any path given after the file must be declared as a capture route.
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	capturesFile := "captures.yaml"
	var required []string
	if len(os.Args) > 1 {
		capturesFile = os.Args[1]
		required = os.Args[2:]
	}

	if err := run(os.Stdout, capturesFile, required); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

func run(w io.Writer, capturesFile string, required []string) error {
	fmt.Fprintf(w, "Validating captures file: %s\n", capturesFile)
	fmt.Fprintln(w, strings.Repeat("-", 50))

	loader := captures.NewLoader()
	if err := loader.Load(capturesFile); err != nil {
		return err
	}

	routes := loader.List()
	fmt.Fprintf(w, "✓ VALIDATION PASSED\n\n")
	fmt.Fprintf(w, "Loaded %d capture route(s):\n", len(routes))
	for i, route := range routes {
		fmt.Fprintf(w, "\n%d. Path: %s\n", i+1, route.Path)
		describe(w, route)
	}

	if len(required) > 0 {
		fmt.Fprintf(w, "\nRequired paths:\n")
	}
	for _, path := range required {
		route, err := loader.Get(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n✓ %s\n", route.Path)
		describe(w, route)
	}

	fmt.Fprintf(w, "\n✓ All capture routes are valid!\n")
	return nil
}

func describe(w io.Writer, route *captures.Route) {
	methods := "any"
	if len(route.Methods) > 0 {
		methods = strings.Join(route.Methods, ", ")
	}
	fmt.Fprintf(w, "   Methods:      %s\n", methods)
	fmt.Fprintf(w, "   Status Code:  %d\n", route.StatusCode)
	if route.ResponseBody != "" {
		fmt.Fprintf(w, "   Response:     %s (%s)\n", route.ResponseBody, route.ContentType)
	}
}
