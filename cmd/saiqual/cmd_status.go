package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okaravasi/sonic-mgmt/pkg/audit"
	"github.com/okaravasi/sonic-mgmt/pkg/cli"
	"github.com/okaravasi/sonic-mgmt/pkg/saiqual"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show persisted sessions",
		Long: `Show every DUT with a persisted session. A session whose owning
process is gone can be reverted from any host with the session store.

  saiqual status
  saiqual status --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun()
			if err != nil {
				return err
			}
			store, err := saiqual.NewStore(run.StoreDir)
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}

			var states []*saiqual.SessionState
			for _, name := range names {
				state, err := store.Load(name)
				if err != nil || state == nil {
					continue
				}
				states = append(states, state)
			}

			if jsonOutput {
				if states == nil {
					states = []*saiqual.SessionState{}
				}
				return json.NewEncoder(os.Stdout).Encode(states)
			}
			if len(states) == 0 {
				fmt.Println("no active sessions")
				return nil
			}

			t := cli.NewTable("DUT", "CONTAINER", "STATE", "ENDPOINT", "IMAGE", "OWNER", "UPDATED")
			for _, s := range states {
				t.Row(s.DUT, s.Variant, cli.LifecycleColor(s.State.String()),
					s.Descriptor.Endpoint(), s.Image, owner(s.PID),
					s.Updated.Format(time.DateTime))
			}
			t.Flush()
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "JSON output")
	return cmd
}

func owner(pid int) string {
	switch {
	case pid == 0:
		return "detached"
	case saiqual.IsProcessAlive(pid):
		return strconv.Itoa(pid)
	default:
		return strconv.Itoa(pid) + " (dead)"
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		dutFilter string
		failures  bool
		limit     int
		since     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show deploy and revert history",
		Long: `Show the lifecycle history recorded in ~/.saiqual/history.log.

  saiqual history
  saiqual history --dut str-msn2700-01 --since 24h
  saiqual history --failures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := audit.NewFileLogger(audit.DefaultPath(), audit.DefaultRotation)
			if err != nil {
				return err
			}
			defer l.Close()

			filter := audit.Filter{DUT: dutFilter, FailureOnly: failures, Limit: limit}
			if since > 0 {
				filter.StartTime = time.Now().Add(-since)
			}
			events, err := l.Query(filter)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("no history")
				return nil
			}

			t := cli.NewTable("TIME", "DUT", "CONTAINER", "USER", "EVENT", "DURATION")
			for _, ev := range events {
				summary := ev.Summary()
				if !ev.Success {
					summary = cli.Red(summary)
				}
				dur := ""
				if ev.Duration > 0 {
					dur = ev.Duration.Round(time.Second).String()
				}
				t.Row(ev.Timestamp.Format(time.DateTime), ev.DUT, ev.Container, ev.User, summary, dur)
			}
			t.Flush()
			return nil
		},
	}
	cmd.Flags().StringVar(&dutFilter, "dut", "", "only events for this DUT")
	cmd.Flags().BoolVar(&failures, "failures", false, "only failed operations")
	cmd.Flags().IntVar(&limit, "limit", 50, "show at most this many of the newest events")
	cmd.Flags().DurationVar(&since, "since", 0, "only events newer than this")
	return cmd
}
