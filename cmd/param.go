package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"platform-common/core/config"
	"platform-common/core/logger"
	"platform-common/core/telemetry"
	"platform-common/feature/params"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// paramCmd groups the parameter store commands.
var paramCmd = &cobra.Command{
	Use:   "param",
	Short: "Manage SSM parameters",
	Long:  `Read, write and delete SecureString parameters in the SSM Parameter Store.`,
}

var paramDescription string

var paramGetCmd = &cobra.Command{
	Use:   "get [name-or-arn]",
	Short: "Fetch and decrypt a parameter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, logg := newParamService(cmd.Context())

		value, err := svc.GetSecureParameter(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, params.ErrParameterNotFound) {
				fmt.Printf("Parameter not found: %s\n", args[0])
				os.Exit(1)
			}
			logg.Fatal("Failed to get parameter", zap.Error(err))
		}
		fmt.Println(value)
	},
}

var paramPutCmd = &cobra.Command{
	Use:   "put [name] [value]",
	Short: "Create or overwrite a SecureString parameter",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		svc, logg := newParamService(cmd.Context())

		arn, err := svc.CreateSecureParameter(cmd.Context(), args[0], args[1], paramDescription)
		if err != nil {
			logg.Fatal("Failed to put parameter", zap.Error(err))
		}
		fmt.Println(arn)
	},
}

var paramDeleteCmd = &cobra.Command{
	Use:   "delete [name-or-arn]",
	Short: "Delete a parameter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, logg := newParamService(cmd.Context())

		if err := svc.DeleteParameter(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, params.ErrParameterNotFound) {
				fmt.Printf("Parameter not found: %s\n", args[0])
				os.Exit(1)
			}
			logg.Fatal("Failed to delete parameter", zap.Error(err))
		}
		fmt.Printf("Deleted %s\n", args[0])
	},
}

func init() {
	paramPutCmd.Flags().StringVar(&paramDescription, "description", "", "parameter description")
	paramCmd.AddCommand(paramGetCmd)
	paramCmd.AddCommand(paramPutCmd)
	paramCmd.AddCommand(paramDeleteCmd)
	RootCmd.AddCommand(paramCmd)
}

func newParamService(ctx context.Context) (*params.Service, *zap.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := telemetry.Setup(&cfg.Telemetry); err != nil {
		logg.Warn("Telemetry initialization failed", zap.Error(err))
	}

	api, err := params.NewAPI(ctx, cfg.Params)
	if err != nil {
		logg.Fatal("Failed to create parameter store client", zap.Error(err))
	}

	return params.NewService(api, logg, telemetry.NewReporter(logg)), logg
}
