package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/audit"
	"github.com/okaravasi/sonic-mgmt/pkg/cli"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

func newDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the SAI test container on the DUT",
		Long: `Deploy the SAI test container and wait for its RPC endpoint.

The session is persisted so a later 'saiqual revert' can restore the
device. A failed deploy is reverted before returning unless --keep-env
is set.

  saiqual deploy -t testbed.yaml
  saiqual deploy -t testbed.yaml --container syncd
  saiqual deploy -t testbed.yaml --enable-ptf-warmboot-test`,
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
			ctx := cmd.Context()

			err = e.timed(audit.OpDeploy, func() error { return ctrl.Deploy(ctx) })
			if err != nil {
				if errors.Is(err, util.ErrInvalidTransition) || errors.Is(err, util.ErrSessionLocked) {
					return err
				}
				if !e.run.KeepEnv {
					fmt.Println("Deploy failed, reverting")
					err = errors.Join(err, ctrl.Revert(context.WithoutCancel(ctx)))
				}
				return infra(err)
			}

			if err := ctrl.Detach(); err != nil {
				util.Warnf("Releasing session: %v", err)
			}
			desc := ctrl.Descriptor()
			fmt.Printf("%s %s ready at %s\n", cli.Green("✓"), desc.Name, desc.Endpoint())
			return nil
		},
	}
}

func newRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert",
		Short: "Restore the DUT from a persisted session",
		Long: `Revert the deployment recorded for the testbed's DUT: stop the test
container, restore the stock images, delete the helper scripts and reload
the configuration. With --keep-env the session is dropped and the device
is left as is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctrl, err := e.resume()
			if errors.Is(err, util.ErrNotFound) {
				fmt.Printf("Nothing deployed on %s\n", e.tb.DUT.Label())
				return nil
			}
			if err != nil {
				return err
			}

			// An interrupt must not cut the revert short and leave the
			// device half restored.
			ctx := context.WithoutCancel(cmd.Context())
			err = e.timed(audit.OpRevert, func() error { return ctrl.Revert(ctx) })
			if err != nil {
				fmt.Printf("%s revert incomplete, run 'saiqual revert' again to retry\n", cli.Red("✗"))
				return infra(err)
			}
			fmt.Printf("%s %s reverted\n", cli.Green("✓"), e.tb.DUT.Label())
			return nil
		},
	}
}
