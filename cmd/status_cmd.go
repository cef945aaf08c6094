// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/vdbgateway/cmd/config"
	"github.com/xataio/vdbgateway/internal/json"
	"github.com/xataio/vdbgateway/pkg/gateway"
)

var statusCmd = &cobra.Command{
	Use:    "status",
	Short:  "Checks the provided configuration, the search engine connectivity and the state of the indices",
	PreRun: statusFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("checking vdbgateway status...").Start()

		gatewayConfig, err := config.ParseGatewayConfig()
		if err != nil {
			sp.Fail(err.Error())
			return fmt.Errorf("parsing gateway config: %w", err)
		}

		indices, err := cmd.Flags().GetStringSlice("index")
		if err != nil {
			return err
		}
		if len(indices) == 0 {
			indices = []string{gatewayConfig.DefaultIndex()}
		}

		statusChecker := gateway.NewStatusChecker()
		status, err := statusChecker.Status(context.Background(), gatewayConfig, indices)
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		statusErrs := status.GetErrors()
		if len(statusErrs) == 0 {
			sp.Success("vdbgateway status check encountered no issues")
		} else {
			sp.Warning("vdbgateway status check identified issues with ", strings.Join(statusErrs.Keys(), ", "))
		}

		err = print(cmd, status)
		if err != nil {
			sp.Fail("failed to format vdbgateway status")
			return err
		}

		return nil
	},
	Example: `
	vdbgateway status -c config.env
	vdbgateway status --engine-url <engine-url> --index immo --index listings
	vdbgateway status -c config.yaml --json
	`,
}

type printer interface {
	PrettyPrint() string
}

func print(cmd *cobra.Command, p printer) error {
	str := p.PrettyPrint()
	if cmd.Flags().Lookup("json").Value.String() == trueStr {
		jsonData, err := json.MarshalIndent(p, "", "\t")
		if err != nil {
			return err
		}
		str = string(jsonData)
	}

	fmt.Println(str) //nolint:forbidigo
	return nil
}

func statusFlagBinding(cmd *cobra.Command, _ []string) {
	engineFlagBinding(cmd)
}
