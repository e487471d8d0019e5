package config

import (
	"regexp"

	log "go.arcalot.io/log/v2"
	"go.flow.arcalot.io/pluginsdk/schema"

	"github.com/deckhand-ci/deckhand/internal/util"
)

func getConfigSchema() *schema.TypedScopeSchema[*Config] {
	return schema.NewTypedScopeSchema[*Config](
		schema.NewStructMappedObjectSchema[*Config](
			"Config",
			map[string]*schema.PropertySchema{
				"log": schema.NewPropertySchema(
					schema.NewRefSchema("LogConfig", nil),
					schema.NewDisplayValue(
						schema.PointerTo("Logging"),
						schema.PointerTo("Logging configuration"),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					nil,
					nil,
				),
				"cloud": schema.NewPropertySchema(
					schema.NewRefSchema("CloudConfig", nil),
					schema.NewDisplayValue(
						schema.PointerTo("Cloud"),
						schema.PointerTo("Deployment CLI and target platform settings."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo("{}"),
					nil,
				),
				"cache": schema.NewPropertySchema(
					schema.NewRefSchema("CacheConfig", nil),
					schema.NewDisplayValue(
						schema.PointerTo("Cache"),
						schema.PointerTo("Dependency cache settings."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo("{}"),
					nil,
				),
			},
		),
		schema.NewStructMappedObjectSchema[log.Config](
			"LogConfig",
			map[string]*schema.PropertySchema{
				"level": schema.NewPropertySchema(
					schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
						string(log.LevelDebug):   {NameValue: schema.PointerTo("Debug")},
						string(log.LevelInfo):    {NameValue: schema.PointerTo("Informational")},
						string(log.LevelWarning): {NameValue: schema.PointerTo("Warnings")},
						string(log.LevelError):   {NameValue: schema.PointerTo("Errors")},
					}),
					schema.NewDisplayValue(
						schema.PointerTo("Log level"),
						schema.PointerTo(
							"Minimum level of log messages to write.",
						),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(util.JSONEncode(log.LevelInfo)),
					nil,
				),
				"destination": schema.NewPropertySchema(
					schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
						string(log.DestinationStdout): {NameValue: schema.PointerTo("Standard output")},
					}),
					schema.NewDisplayValue(
						schema.PointerTo("Log destination"),
						schema.PointerTo(
							"Where the logs should be written to.",
						),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(util.JSONEncode(log.DestinationStdout)),
					nil,
				),
			},
		),
		schema.NewStructMappedObjectSchema[*CloudConfig](
			"CloudConfig",
			map[string]*schema.PropertySchema{
				"binary": schema.NewPropertySchema(
					schema.NewStringSchema(schema.IntPointer(1), nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Deployment CLI"),
						schema.PointerTo("The CLI the publish stage invokes."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(util.JSONEncode("datasette")),
					nil,
				),
				"target": schema.NewPropertySchema(
					schema.NewStringSchema(schema.IntPointer(1), nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Publish target"),
						schema.PointerTo("The managed container platform to publish to."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(util.JSONEncode("cloudrun")),
					nil,
				),
				"project": schema.NewPropertySchema(
					schema.NewStringSchema(nil, nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Project"),
						schema.PointerTo("The cloud project deployments are published to."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(`""`),
					nil,
				),
				"region": schema.NewPropertySchema(
					schema.NewStringSchema(nil, nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Region"),
						schema.PointerTo("The cloud region deployments are published to."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(`""`),
					nil,
				),
				"credentials_secret": schema.NewPropertySchema(
					schema.NewStringSchema(schema.IntPointer(1), nil, regexp.MustCompile("^[A-Za-z_][A-Za-z0-9_/:]*$")),
					schema.NewDisplayValue(
						schema.PointerTo("Credentials secret"),
						schema.PointerTo("Name of the secret holding the service-account credentials."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(util.JSONEncode("DEPLOY_SA_KEY")),
					nil,
				),
				"publish_retries": schema.NewPropertySchema(
					schema.NewIntSchema(schema.IntPointer(0), schema.IntPointer(10), nil),
					schema.NewDisplayValue(
						schema.PointerTo("Publish retries"),
						schema.PointerTo("How many times to retry a failed publish invocation."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo("0"),
					nil,
				),
			},
		),
		schema.NewStructMappedObjectSchema[*CacheConfig](
			"CacheConfig",
			map[string]*schema.PropertySchema{
				"backend": schema.NewPropertySchema(
					schema.NewStringEnumSchema(map[string]*schema.DisplayValue{
						string(CacheBackendLocal): {NameValue: schema.PointerTo("Local directory")},
						string(CacheBackendS3):    {NameValue: schema.PointerTo("S3 bucket")},
					}),
					schema.NewDisplayValue(
						schema.PointerTo("Cache backend"),
						schema.PointerTo("Where dependency cache entries are stored."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(util.JSONEncode(CacheBackendLocal)),
					nil,
				),
				"root": schema.NewPropertySchema(
					schema.NewStringSchema(nil, nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Cache root"),
						schema.PointerTo("Local cache directory. Empty selects the user cache directory."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(`""`),
					nil,
				),
				"bucket": schema.NewPropertySchema(
					schema.NewStringSchema(nil, nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Cache bucket"),
						schema.PointerTo("S3 bucket for the s3 backend."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(`""`),
					nil,
				),
				"region": schema.NewPropertySchema(
					schema.NewStringSchema(nil, nil, nil),
					schema.NewDisplayValue(
						schema.PointerTo("Cache region"),
						schema.PointerTo("S3 region for the s3 backend."),
						nil,
					),
					false,
					nil,
					nil,
					nil,
					schema.PointerTo(`""`),
					nil,
				),
			},
		),
	)
}
