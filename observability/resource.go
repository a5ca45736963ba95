package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Resource identifies the process emitting telemetry.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	// Environment is the deployment environment (development, staging,
	// production).
	Environment string
}

// build merges r with the SDK default resource. The service attributes are
// schemaless so the merge never conflicts with the default schema URL.
func (r Resource) build() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String(AttrServiceName, r.ServiceName),
			attribute.String(AttrServiceVersion, r.ServiceVersion),
			attribute.String(AttrEnvironment, r.Environment),
		),
	)
}

// Attribute keys.
const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
	AttrEnvironment    = "deployment.environment"
	AttrIteratorName   = "iterator.name"
	AttrResult         = "iterator.result"
	AttrConsumed       = "iterator.consumed"
	AttrOperation      = "iterator.operation"
)
