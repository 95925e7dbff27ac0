// File: cmd/settings.go
package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/notefill/internal/domain"
)

func newLocationCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Show or set the exchange location for the active bank",
	}
	cmd.AddCommand(newLocationShowCmd(h), newLocationSetCmd(h))
	return cmd
}

func newLocationShowCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configured exchange location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			profile, err := a.cfg.Profile()
			if err != nil {
				return err
			}
			spec, ok := a.cfg.Location()
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "%s: 未配置网点\n", profile.Name)
				return nil
			}
			fmt.Fprintf(out, "%s (%s): %s\n", profile.Name, spec.Kind, spec.String())
			return nil
		},
	}
}

func newLocationSetCmd(h *appHolder) *cobra.Command {
	var fields domain.IndependentFields
	cmd := &cobra.Command{
		Use:   "set [level...]",
		Short: "Set the exchange location",
		Long: `For a bank with a cascading selector pass up to four levels in order:
  notefill location set 北京市 北京市 朝阳区 朝阳支行
For a bank with independent selects use the flags; empty fields are skipped:
  notefill location set --province 北京市 --outlet 中关村支行`,
		Args: cobra.MaximumNArgs(domain.MaxCascadeLevels),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			profile, err := a.cfg.Profile()
			if err != nil {
				return err
			}

			var spec domain.LocationSpec
			if profile.UsesCascadingSelector {
				spec, err = domain.NewCascadePath(args...)
			} else {
				if len(args) > 0 {
					return fmt.Errorf("%s uses independent selects; use --province/--city/--district/--outlet", profile.Name)
				}
				spec, err = domain.NewIndependentFields(fields)
			}
			if err != nil {
				return err
			}
			if err := a.store.SaveLocation(spec); err != nil {
				return err
			}

			a.cfg.LocationCfg.Name = spec.Name()
			if spec.Kind == domain.LocationCascade {
				a.cfg.LocationCfg.CascadePath = spec.CascadePath
			} else {
				a.cfg.LocationCfg.Independent = spec.Independent
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Location set: %s\n", spec.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&fields.Province, "province", "", "province (independent selects)")
	cmd.Flags().StringVar(&fields.City, "city", "", "city (independent selects)")
	cmd.Flags().StringVar(&fields.District, "district", "", "district (independent selects)")
	cmd.Flags().StringVar(&fields.Outlet, "outlet", "", "outlet (independent selects)")
	return cmd
}

func newBankCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "bank [name]",
		Short: "Show the active bank, or switch to another profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			out := cmd.OutOrStdout()
			profiles := a.cfg.Profiles()
			if len(args) == 0 {
				names := make([]string, 0, len(profiles))
				for name := range profiles {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					marker := " "
					if name == a.cfg.Bank() {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s\n", marker, name)
				}
				return nil
			}

			name := args[0]
			if _, ok := profiles[name]; !ok {
				return fmt.Errorf("unknown bank %q", name)
			}
			if err := a.store.SaveBank(name); err != nil {
				return err
			}
			a.cfg.BankName = name
			fmt.Fprintf(out, "Bank set: %s\n", name)
			return nil
		},
	}
}

func newQuantityCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "quantity [n]",
		Short: "Show or set the number of notes reserved per identity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, a.cfg.Quantity())
				return nil
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[0], err)
			}
			if err := a.store.SaveQuantity(n); err != nil {
				return err
			}
			a.cfg.QuantityCfg = n
			fmt.Fprintf(out, "Quantity set: %d\n", n)
			return nil
		},
	}
}
