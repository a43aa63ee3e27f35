// Saiqual - SAI qualification test environment for SONiC devices
//
// Saiqual turns a SONiC DUT into a SAI test target: it replaces the
// forwarding stack with a container exposing the SAI RPC endpoint, prepares
// the PTF host's port map, and restores the device afterwards.
//
// Lifecycle:
//
//	saiqual deploy -t testbed.yaml       # deploy saiserver (or --container syncd)
//	saiqual status                       # show persisted sessions
//	saiqual revert -t testbed.yaml       # restore the DUT
//
// One-shot:
//
//	saiqual run -t testbed.yaml -- ptf --test-dir /root/sai_test ...
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/config"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
	"github.com/okaravasi/sonic-mgmt/pkg/version"
)

var (
	verboseFlag bool
	jsonLogFlag bool
	configFlag  string

	loader = config.NewLoader()
)

// Sentinel errors for exit code mapping. RunE handlers return these instead
// of calling os.Exit directly, so deferred cleanup runs.
var (
	errTestFailure = errors.New("test failure")
	errInfraError  = errors.New("infrastructure error")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errInfraError) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "saiqual",
		Short: "SAI qualification test environment for SONiC",
		Long: `Saiqual deploys a SAI test container on a SONiC DUT and restores the
device afterwards.

The saiserver variant runs a standalone SAI RPC server; the syncd variant
swaps the stock syncd for its RPC build. The RPC endpoint listens on the
DUT's address, port 9092.

  saiqual deploy -t testbed.yaml
  saiqual revert -t testbed.yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if jsonLogFlag {
				util.SetJSONFormat()
			}
			if verboseFlag {
				return util.SetLogLevel("debug")
			}
			return util.SetLogLevel("info")
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	pf.BoolVar(&jsonLogFlag, "json-log", false, "Log JSON lines")
	pf.StringVarP(&configFlag, "config", "c", "", "Run configuration file (yaml)")
	loader.AddFlags(pf)

	rootCmd.AddCommand(
		newDeployCmd(),
		newRevertCmd(),
		newProbeCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newPortmapCmd(),
		newRunCmd(),
		newSaithriftCmd(),
		newSettingsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.IsDev() {
					fmt.Println("saiqual dev build (version is stamped with -ldflags)")
				} else {
					fmt.Printf("saiqual %s\n", version.Info())
				}
			},
		},
	)
	return rootCmd
}
