// Package constants holds values shared across layers.
package constants

const (
	EnvDevelop    = "development"
	EnvProduction = "production"
)

const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

const (
	ServiceDisplayName = "EMUSS API Server"
	ServiceVersion     = "1.0.0"
)
