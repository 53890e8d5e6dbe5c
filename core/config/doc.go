// Package config provides configuration management for the platform services.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file, with defaults declared as struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, environment)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Telemetry: Error reporting DSN and sampling
//   - Params: SSM parameter store settings
//   - Vector: Vector-collection service endpoint
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
