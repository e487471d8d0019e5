package config

import (
	log "go.arcalot.io/log/v2"
)

// Config is the engine configuration. It describes the environment a
// pipeline runs in, not the pipeline itself.
type Config struct {
	// Log configures logging for pipeline runs.
	Log log.Config `json:"log" yaml:"log"`
	// Cloud configures the managed container platform deployments publish
	// to.
	Cloud *CloudConfig `json:"cloud" yaml:"cloud"`
	// Cache configures the dependency cache shared between runs.
	Cache *CacheConfig `json:"cache" yaml:"cache"`
}

// CloudConfig holds the deployment CLI settings.
type CloudConfig struct {
	// Binary is the deployment CLI invoked by the publish stage.
	Binary string `json:"binary" yaml:"binary"`
	// Target is the publish target passed to the CLI, e.g. cloudrun.
	Target string `json:"target" yaml:"target"`
	// Project is the cloud project deployments are published to.
	Project string `json:"project" yaml:"project"`
	// Region is the cloud region deployments are published to.
	Region string `json:"region" yaml:"region"`
	// CredentialsSecret names the secret holding the service-account
	// credentials JSON.
	CredentialsSecret string `json:"credentials_secret" yaml:"credentials_secret"`
	// PublishRetries is the number of times a failed publish invocation is
	// retried with exponential backoff. Zero disables retries, which keeps
	// the default fail-fast contract.
	PublishRetries int64 `json:"publish_retries" yaml:"publish_retries"`
}

// CacheConfigBackend selects where dependency cache entries are stored.
type CacheConfigBackend string

const (
	// CacheBackendLocal stores cache entries in a local directory.
	CacheBackendLocal CacheConfigBackend = "local"
	// CacheBackendS3 stores cache entries in an S3 bucket.
	CacheBackendS3 CacheConfigBackend = "s3"
)

// CacheConfig holds the dependency cache settings.
type CacheConfig struct {
	// Backend selects the cache storage backend.
	Backend CacheConfigBackend `json:"backend" yaml:"backend"`
	// Root is the directory of the local backend. Empty selects the user
	// cache directory.
	Root string `json:"root" yaml:"root"`
	// Bucket is the S3 bucket of the s3 backend.
	Bucket string `json:"bucket" yaml:"bucket"`
	// Region is the S3 region of the s3 backend.
	Region string `json:"region" yaml:"region"`
}
