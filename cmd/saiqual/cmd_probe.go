package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/cli"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the RPC endpoint accepts connections",
		Long: `Open one TCP connection to the SAI RPC endpoint on the DUT. Exits
nonzero when the endpoint does not answer within --probe-timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctrl, err := e.controller()
			if err != nil {
				return err
			}
			endpoint := ctrl.Descriptor().Endpoint()
			if !ctrl.ProbeReady(cmd.Context()) {
				fmt.Printf("%s %s not reachable\n", cli.Red("✗"), endpoint)
				return fmt.Errorf("%w: %s not reachable", errInfraError, endpoint)
			}
			fmt.Printf("%s %s accepting connections\n", cli.Green("✓"), endpoint)
			return nil
		},
	}
}
