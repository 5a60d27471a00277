package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/derivpricing/pkg/config"
	"github.com/wyfcoding/derivpricing/pkg/logger"
)

func newPriceCmd(configPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "price <product> <kind>",
		Short: "Price a single product from a JSON request",
		Example: `  pricing price option vanilla -f request.json
  echo '{"maturity":1,"rate":0.05,"nominal":100}' | pricing price bond zero-coupon`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithDefaults(*configPath)
			if err != nil {
				return err
			}
			// 命令行模式只输出 warn 及以上日志到 stderr，保证 stdout 为纯 JSON
			cfg.Logger.Level = "warn"
			cfg.Logger.Output = "stderr"
			if err := logger.Init(cfg.Logger); err != nil {
				return err
			}
			cfg.Redis.Enabled = false
			cfg.Kafka.Enabled = false
			cfg.Metrics.Enabled = false

			payload, err := readPayload(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			app, err := initService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Service.Price(cmd.Context(), args[0], args[1], payload)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "request JSON file, reads stdin when empty")
	return cmd
}

func readPayload(stdin io.Reader, file string) ([]byte, error) {
	if file == "" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return data, nil
}
