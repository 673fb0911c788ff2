package cmd

import (
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"chatrelay/internal/server"
	"chatrelay/internal/version"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda handler behind API Gateway",
	Long: `Start the Lambda runtime loop. Each API Gateway proxy event is relayed
to the generation service and answered with a proxy response.`,
	RunE: runLambda,
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

func runLambda(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Lambda 入口不使用 server.* 配置，只校验生成服务部分
	if err := cfg.Generation.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	h, client, err := server.NewChatHandler(&cfg.Generation)
	if err != nil {
		return err
	}

	log.Info().
		Str("endpoint", client.Endpoint()).
		Dur("timeout", cfg.Generation.Timeout).
		Str("version", version.Version).
		Msg("starting lambda handler")

	lambda.Start(h.Lambda)
	return nil
}
