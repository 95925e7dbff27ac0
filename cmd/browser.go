// File: cmd/browser.go
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/notefill/internal/coordinator"
	"github.com/xkilldash9x/notefill/internal/render"
)

var errIndexOrAll = errors.New("specify an identity index or --all")

// oneOrAll resolves the common "[index] | --all" argument shape. It returns
// -1 for --all.
func oneOrAll(a *app, args []string, all bool) (int, error) {
	switch {
	case all && len(args) > 0:
		return 0, errIndexOrAll
	case all:
		return -1, nil
	case len(args) == 0:
		return 0, errIndexOrAll
	}
	return parseIndex(args[0], a.registry.Len())
}

func newConnectCmd(h *appHolder) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "connect [index]",
		Short: "Attach to the browser of one identity, or of all of them",
		Long: `Attaches to the Chromium debug endpoint on browser.base_port + (index - 1) and
takes over the newest tab of its first window. Nothing is launched and no tab is
opened or closed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			idx, err := oneOrAll(a, args, all)
			if err != nil {
				return err
			}
			if idx < 0 {
				results := a.coord.ConnectAll(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), render.Batch(coordinator.OpConnect, results))
				return nil
			}
			if err := a.coord.Connect(cmd.Context(), idx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Status(a.coord.Snapshot(), a.cfg.Browser()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "connect every identity, staggered by browser.connect_stagger")
	return cmd
}

func newDisconnectCmd(h *appHolder) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "disconnect [index]",
		Short: "Release the automation channel of one identity, or of all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			idx, err := oneOrAll(a, args, all)
			if err != nil {
				return err
			}
			if idx < 0 {
				results := a.coord.DisconnectAll(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), render.Batch(coordinator.OpDisconnect, results))
				return nil
			}
			return a.coord.Disconnect(cmd.Context(), idx)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "disconnect every identity")
	return cmd
}

func newFillCmd(h *appHolder) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "fill [index]",
		Short: "Fill the reservation form of one connected identity, or of all of them",
		Long: `Fills name, ID number, phone and quantity, then selects the configured
exchange location. The captcha and the final submit are left to the operator.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			idx, err := oneOrAll(a, args, all)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if idx < 0 {
				results := a.coord.FillAll(cmd.Context())
				printFills(out, results)
				fmt.Fprintln(out, render.Batch(coordinator.OpFill, results))
				return nil
			}
			res, err := a.coord.Fill(cmd.Context(), idx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, render.Fill(res))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "fill every connected identity concurrently")
	return cmd
}

func newRunCmd(h *appHolder) *cobra.Command {
	var hold bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect and fill every identity, then hold the connections",
		Long: `Connects every identity, fills every attached form and prints the roster.
With --hold (the default) the connections are kept until interrupted so the
captchas can be solved and the forms submitted by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, render.Batch(coordinator.OpConnect, a.coord.ConnectAll(ctx)))
			fills := a.coord.FillAll(ctx)
			printFills(out, fills)
			fmt.Fprintln(out, render.Batch(coordinator.OpFill, fills))
			fmt.Fprintln(out, render.Status(a.coord.Snapshot(), a.cfg.Browser()))

			if !hold {
				return nil
			}
			fmt.Fprintln(out, "请检查验证码并手动输入，然后点击提交。按 Ctrl+C 断开连接。")
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&hold, "hold", true, "keep the connections until interrupted")
	return cmd
}

func newStatusCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show every identity with its port, state and attached page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			fmt.Fprintln(cmd.OutOrStdout(), render.Status(a.coord.Snapshot(), a.cfg.Browser()))
			return nil
		},
	}
}

func newInspectCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <index>",
		Short: "Dump every form input of a connected identity's page",
		Long:  `Lists each input.el-input__inner with its position, type, placeholder and value. Use it to find field_indices for a new bank.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			idx, err := parseIndex(args[0], a.registry.Len())
			if err != nil {
				return err
			}
			infos, err := a.coord.Inspect(cmd.Context(), idx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Inputs(infos))
			return nil
		},
	}
}

func printFills(out io.Writer, results []coordinator.BatchResult) {
	for _, r := range results {
		if r.Fill != nil {
			fmt.Fprintln(out, render.Fill(r.Fill))
		}
	}
}
