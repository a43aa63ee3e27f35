package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/audit"
	"github.com/okaravasi/sonic-mgmt/pkg/cli"
	"github.com/okaravasi/sonic-mgmt/pkg/remote"
	"github.com/okaravasi/sonic-mgmt/pkg/report"
	"github.com/okaravasi/sonic-mgmt/pkg/saiqual"
	"github.com/okaravasi/sonic-mgmt/pkg/util"
)

func newRunCmd() *cobra.Command {
	var suiteName string

	cmd := &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run a command on the PTF host inside a test session",
		Long: `Deploy the test container, prepare the PTF port map, run the command on
the PTF host and restore both hosts, whatever the command's outcome.

In the command, {interfaces} expands to the ptf --interface list of the
port map, {dut} to the RPC endpoint host and {port} to its port.

  saiqual run -t testbed.yaml -- ptf --test-dir /root/sai_test \
      sai_qualify.l2 {interfaces} "--test-params=server='{dut}';port={port}"

With --report a JUnit file records the deploy, the command and the
revert, with the SAI versions as suite properties.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctrl, err := e.controller()
			if err != nil {
				return err
			}
			ptf := saiqual.NewPTF(e.ptf, e.portSource())

			suite := report.NewSuite(suiteName)
			suite.SetVersions(e.run.OriginVersion, e.run.UpgradeVersion)

			var (
				testErr  error
				deployed bool
				start    = time.Now()
			)
			sessionErr := e.timed(audit.OpRun, func() error {
				return saiqual.WithSession(cmd.Context(), ctrl, ptf, func(ctx context.Context, s *saiqual.Session) error {
					deployed = true
					suite.Add(report.CaseResult{Name: "deploy", Status: report.StatusPassed, Duration: time.Since(start)})
					testErr = runOnPTF(ctx, suite, e.ptf, expandCommand(args, s), args[0])
					start = time.Now()
					return nil
				})
			})

			switch {
			case !deployed:
				suite.Add(report.CaseResult{Name: "deploy", Status: report.StatusError, Message: errMessage(sessionErr)})
			case sessionErr != nil:
				suite.Add(report.CaseResult{Name: "revert", Status: report.StatusError, Duration: time.Since(start), Message: sessionErr.Error()})
			default:
				suite.Add(report.CaseResult{Name: "revert", Status: report.StatusPassed, Duration: time.Since(start)})
			}
			if e.run.Report != "" {
				if err := suite.WriteJUnit(e.run.Report); err != nil {
					util.Errorf("Writing report: %v", err)
				} else {
					fmt.Printf("Report written to %s\n", e.run.Report)
				}
			}

			if sessionErr != nil {
				return infra(sessionErr)
			}
			return testErr
		},
	}
	cmd.Flags().StringVar(&suiteName, "suite", "sai_qualify", "JUnit test suite name")
	return cmd
}

// runOnPTF runs command on the PTF host and records it as a test case
// named name.
func runOnPTF(ctx context.Context, suite *report.Suite, ptf remote.Executor, command, name string) error {
	fmt.Printf("Running on %s: %s\n", ptf.Host(), command)
	start := time.Now()
	res, err := ptf.Execute(ctx, command)
	c := report.CaseResult{Name: name, Status: report.StatusPassed, Duration: time.Since(start)}
	if res != nil {
		for _, line := range res.Stdout {
			fmt.Println(line)
		}
		c.Output = strings.Join(append(append([]string(nil), res.Stdout...), res.Stderr...), "\n")
	}

	switch {
	case err != nil:
		c.Status = report.StatusError
		c.Message = err.Error()
		err = fmt.Errorf("%w: %v", errInfraError, err)
	case res.Failed:
		c.Status = report.StatusFailed
		c.Message = fmt.Sprintf("exit status %d", res.ExitStatus)
		err = fmt.Errorf("%w: %s exited %d", errTestFailure, name, res.ExitStatus)
		fmt.Printf("%s %s\n", cli.Red("✗"), c.Message)
	default:
		fmt.Printf("%s passed in %s\n", cli.Green("✓"), c.Duration.Round(time.Second))
	}
	suite.Add(c)
	return err
}

// expandCommand joins args into one shell command, substituting the
// session placeholders.
func expandCommand(args []string, s *saiqual.Session) string {
	desc := s.Controller().Descriptor()
	interfaces := ""
	if s.PTF() != nil {
		interfaces = s.PTF().InterfaceArgs()
	}
	r := strings.NewReplacer(
		"{interfaces}", interfaces,
		"{dut}", desc.EndpointHost,
		"{port}", fmt.Sprint(desc.EndpointPort),
	)
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.Contains(arg, "{interfaces}") {
			// Already a list of quoted flags.
			quoted[i] = r.Replace(arg)
			continue
		}
		quoted[i] = remote.Quote(r.Replace(arg))
	}
	return strings.Join(quoted, " ")
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func newSaithriftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saithrift <url>",
		Short: "Install the python saithrift package on the PTF host",
		Long: `Download the python saithrift .deb at <url> onto the PTF host and
install it with dpkg.

  saiqual saithrift -t testbed.yaml http://files.example.com/python-saithrift_0.9.4_amd64.deb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			p := saiqual.NewPTF(e.ptf, nil)
			if err := p.InstallSaithrift(cmd.Context(), args[0]); err != nil {
				return infra(err)
			}
			fmt.Printf("%s saithrift installed on %s\n", cli.Green("✓"), e.ptf.Host())
			return nil
		},
	}
}
