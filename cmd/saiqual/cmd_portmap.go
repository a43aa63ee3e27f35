package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/cli"
	"github.com/okaravasi/sonic-mgmt/pkg/portmap"
	"github.com/okaravasi/sonic-mgmt/pkg/saiqual"
)

func newPortmapCmd() *cobra.Command {
	var (
		outputDir string
		remoteDir string
		push      bool
		remove    bool
	)

	cmd := &cobra.Command{
		Use:   "portmap",
		Short: "Generate the PTF port map for the DUT",
		Long: `Generate default_interface_to_front_map.ini, mapping PTF interface
indexes to the DUT's Ethernet ports in natural order.

The port list comes from --port-config-file, --config-db-file, or the
DUT's CONFIG_DB when neither is given.

  saiqual portmap -t testbed.yaml                  # write locally
  saiqual portmap -t testbed.yaml --push           # and copy to the PTF host
  saiqual portmap -t testbed.yaml --delete         # remove it from the PTF host`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if push && remove {
				return fmt.Errorf("--push and --delete are mutually exclusive")
			}
			e, err := openEnv(push || remove)
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := cmd.Context()

			if remove {
				file := path.Join(remoteDir, portmap.FileName)
				if err := portmap.Delete(ctx, e.ptf, file); err != nil {
					return infra(err)
				}
				fmt.Printf("%s removed %s:%s\n", cli.Green("✓"), e.ptf.Host(), file)
				return nil
			}

			if push {
				p := saiqual.NewPTF(e.ptf, e.portSource())
				p.LocalDir = outputDir
				p.RemoteDir = remoteDir
				if err := p.Prepare(ctx); err != nil {
					return infra(err)
				}
				fmt.Printf("%s %d ports mapped on %s\n", cli.Green("✓"), len(p.MappedPorts()), e.ptf.Host())
				fmt.Println(p.InterfaceArgs())
				return nil
			}

			names, err := e.portSource()(ctx)
			if err != nil {
				return infra(err)
			}
			file := filepath.Join(outputDir, portmap.FileName)
			sorted, err := portmap.Write(file, names)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d ports written to %s\n", cli.Green("✓"), len(sorted), file)
			fmt.Println(portmap.InterfaceArgs(len(sorted)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", os.TempDir(), "local directory for the port map")
	cmd.Flags().StringVar(&remoteDir, "remote-dir", portmap.DefaultRemoteDir, "directory on the PTF host")
	cmd.Flags().BoolVar(&push, "push", false, "copy the port map to the PTF host")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the port map from the PTF host")
	return cmd
}
