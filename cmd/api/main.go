package main

import (
	"go.uber.org/fx"
)

/* main.go is where every package gets wired together: configuration,
 * storage, the live feed, the generation backend and the HTTP server.
 * Imports only flow downward: cmd imports the business packages,
 * which import the storage packages.
 */

func main() {
	fx.New(
		// Configuration
		configModule,

		// Infrastructure
		storageModule,
		feedModule,
		metricsModule,

		// Business logic
		serviceModule,

		// Delivery
		serverModule,
	).Run()
}
