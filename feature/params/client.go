package params

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Config holds the parameter-store feature settings.
type Config struct {
	// Enabled toggles the feature; deployments without AWS access leave
	// it off.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Region overrides the ambient AWS region when set.
	Region string `mapstructure:"region" default:""`
}

// NewAPI builds the concrete SSM client using the ambient AWS credential
// chain (environment, shared config, instance role).
func NewAPI(ctx context.Context, cfg Config) (API, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}
