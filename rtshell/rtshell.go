// Package rtshell implements a read-only diagnostic shell over a
// running rtos.Kernel, built on cobra rather than a bespoke token
// parser.
package rtshell

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kineticos/rtos"
	"github.com/kineticos/rtos/rtclock"
)

// New builds the root "rtshell" command over k, writing to out.
// Every subcommand is read-only: nothing here can create, delete, or
// otherwise mutate kernel state.
func New(k *rtos.Kernel, clk rtclock.Clock, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "rtshell",
		Short: "read-only diagnostic shell over a running kernel",
	}
	root.SetOut(out)

	root.AddCommand(statsCmd(k, clk, out))
	root.AddCommand(psCmd(k, out))
	root.AddCommand(prioCmd(k, out))
	return root
}

func statsCmd(k *rtos.Kernel, clk rtclock.Clock, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print kernel-wide counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := k.Stats()
			fmt.Fprintf(out, "running=%v tasks=%d ticks=%d uptime=%s\n",
				s.Running, s.TaskCount, s.SysTicks, clk.Uptime(s.SysTicks))
			return nil
		},
	}
}

func psCmd(k *rtos.Kernel, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "list tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(out, "%-6s %-16s %-4s %-10s %10s %12s\n",
				"ID", "NAME", "PRIO", "STATE", "SWITCHES", "RUN TICKS")
			for _, t := range k.Tasks() {
				fmt.Fprintf(out, "%-6d %-16s %-4d %-10s %10d %12d\n",
					t.ID(), t.Name(), t.Prio(), t.State(),
					t.SwitchCount(), t.TotalRunTicks())
			}
			return nil
		},
	}
}

func prioCmd(k *rtos.Kernel, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "prio [task-id]",
		Short: "print one task's priority and state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint32
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
				return fmt.Errorf("rtshell: invalid task id %q", args[0])
			}
			for _, t := range k.Tasks() {
				if t.ID() == id {
					fmt.Fprintf(out, "%s: prio=%d state=%s\n", t.Name(), t.Prio(), t.State())
					return nil
				}
			}
			return fmt.Errorf("rtshell: no task with id %d", id)
		},
	}
}
