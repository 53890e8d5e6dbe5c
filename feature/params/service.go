package params

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"platform-common/core/telemetry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"go.uber.org/zap"
)

// ErrParameterNotFound reports that the requested parameter does not exist.
var ErrParameterNotFound = errors.New("parameter not found")

const arnPrefix = "arn:aws:ssm:"

// API is the subset of the SSM client used by the service, narrowed so tests
// can substitute a mock.
type API interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// Service wraps the SSM Parameter Store for SecureString parameters.
// Callers may address parameters either by plain name or by full ARN.
type Service struct {
	api      API
	logger   *zap.Logger
	reporter telemetry.Reporter
}

// NewService creates a parameter-store client on top of an SSM API.
func NewService(api API, logger *zap.Logger, reporter telemetry.Reporter) *Service {
	if logger == nil {
		logger = zap.L()
	}
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}
	return &Service{api: api, logger: logger, reporter: reporter}
}

// parameterName resolves a name-or-ARN reference to the bare parameter name.
// ARN format: arn:aws:ssm:region:account-id:parameter/path/to/parameter.
// A malformed ARN is an error; anything not ARN-shaped passes through as a
// plain name.
func parameterName(nameOrARN string) (string, error) {
	if !strings.HasPrefix(nameOrARN, arnPrefix) {
		return nameOrARN, nil
	}

	parts := strings.SplitN(nameOrARN, ":", 6)
	if len(parts) < 6 {
		return "", fmt.Errorf("invalid parameter ARN %q", nameOrARN)
	}

	path := parts[5]
	if strings.HasPrefix(path, "parameter") {
		return path, nil
	}
	return "/" + path, nil
}

// CreateSecureParameter stores value as an encrypted SecureString, overwriting
// any previous value. It returns the parameter's ARN, falling back to the
// bare name when the ARN cannot be resolved after the write.
func (s *Service) CreateSecureParameter(ctx context.Context, name, value, description string) (string, error) {
	_, err := s.api.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(name),
		Value:       aws.String(value),
		Type:        types.ParameterTypeSecureString,
		Description: aws.String(description),
		Overwrite:   aws.Bool(true),
	})
	if err != nil {
		s.reporter.CaptureException(err)
		s.logger.Error("Failed to create secure parameter", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("failed to create secure parameter %q: %w", name, err)
	}

	// ARN resolution is best-effort; the write already succeeded.
	desc, err := s.api.DescribeParameters(ctx, &ssm.DescribeParametersInput{
		ParameterFilters: []types.ParameterStringFilter{
			{Key: aws.String("Name"), Values: []string{name}},
		},
	})
	if err != nil || len(desc.Parameters) == 0 || desc.Parameters[0].ARN == nil {
		s.logger.Warn("Could not resolve parameter ARN, using name as identifier",
			zap.String("name", name), zap.Error(err))
		return name, nil
	}

	return *desc.Parameters[0].ARN, nil
}

// GetSecureParameter fetches and decrypts a parameter by name or ARN.
// A missing parameter yields ErrParameterNotFound.
func (s *Service) GetSecureParameter(ctx context.Context, nameOrARN string) (string, error) {
	name, err := parameterName(nameOrARN)
	if err != nil {
		s.logger.Error("Invalid parameter reference", zap.String("ref", nameOrARN), zap.Error(err))
		return "", err
	}

	s.logger.Debug("Getting parameter", zap.String("name", name))
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var nf *types.ParameterNotFound
		if errors.As(err, &nf) {
			s.logger.Warn("Parameter not found", zap.String("ref", nameOrARN))
			return "", ErrParameterNotFound
		}
		s.reporter.CaptureException(err)
		s.logger.Error("Failed to get parameter", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("failed to get parameter %q: %w", name, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// UpdateParameter overwrites an existing SecureString parameter, addressed by
// name or ARN.
func (s *Service) UpdateParameter(ctx context.Context, nameOrARN, value, description string) error {
	name, err := parameterName(nameOrARN)
	if err != nil {
		s.logger.Error("Invalid parameter reference", zap.String("ref", nameOrARN), zap.Error(err))
		return err
	}

	s.logger.Debug("Updating parameter", zap.String("name", name))
	_, err = s.api.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(name),
		Value:       aws.String(value),
		Type:        types.ParameterTypeSecureString,
		Description: aws.String(description),
		Overwrite:   aws.Bool(true),
	})
	if err != nil {
		s.reporter.CaptureException(err)
		s.logger.Error("Failed to update parameter", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to update parameter %q: %w", name, err)
	}
	return nil
}

// DeleteParameter removes a parameter, addressed by name or ARN. Deleting a
// missing parameter yields ErrParameterNotFound.
func (s *Service) DeleteParameter(ctx context.Context, nameOrARN string) error {
	name, err := parameterName(nameOrARN)
	if err != nil {
		s.logger.Error("Invalid parameter reference", zap.String("ref", nameOrARN), zap.Error(err))
		return err
	}

	s.logger.Debug("Deleting parameter", zap.String("name", name))
	_, err = s.api.DeleteParameter(ctx, &ssm.DeleteParameterInput{Name: aws.String(name)})
	if err != nil {
		var nf *types.ParameterNotFound
		if errors.As(err, &nf) {
			s.logger.Warn("Parameter not found", zap.String("ref", nameOrARN))
			return ErrParameterNotFound
		}
		s.reporter.CaptureException(err)
		s.logger.Error("Failed to delete parameter", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to delete parameter %q: %w", name, err)
	}
	return nil
}
