// File: cmd/identity.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/domain"
)

type identityFlags struct {
	name, idType, idNumber, phone string
}

func (f *identityFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.idType, "id-type", "", "document type (default "+domain.DefaultIDType+")")
	cmd.Flags().StringVar(&f.idNumber, "id-number", "", "document number")
	cmd.Flags().StringVar(&f.phone, "phone", "", "mobile number")
}

func newIdentityCmd(h *appHolder) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "identity",
		Aliases: []string{"user"},
		Short:   "Manage the applicant roster",
	}
	cmd.AddCommand(
		newIdentityListCmd(h),
		newIdentityAddCmd(h),
		newIdentityEditCmd(h),
		newIdentityDeleteCmd(h),
	)
	return cmd
}

func newIdentityListCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identities in roster order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := h.app.coord.Identities()
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No identities configured. Add one with: notefill identity add --name ... --id-number ... --phone ...")
				return nil
			}
			for i, id := range ids {
				fmt.Fprintf(out, "%d. %s  %s %s  %s\n", i+1, id.Name, id.IDType, mask(id.IDNumber, 4), mask(id.Phone, 4))
			}
			return nil
		},
	}
}

func newIdentityAddCmd(h *appHolder) *cobra.Command {
	var f identityFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an identity to the roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			id, err := domain.NewIdentity(f.name, f.idType, f.idNumber, f.phone)
			if err != nil {
				return err
			}
			idx, err := a.coord.AddIdentity(id)
			if err != nil {
				return err
			}
			if err := a.saveIdentities(); err != nil {
				return err
			}
			_, port := a.cfg.Browser().Endpoint(idx)
			a.logger.Info("Identity added.", zap.String("identity", id.Name), zap.Int("index", idx))
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s as #%d (browser port %d).\n", id.Name, idx+1, port)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newIdentityEditCmd(h *appHolder) *cobra.Command {
	var f identityFlags
	cmd := &cobra.Command{
		Use:   "edit <index>",
		Short: "Change fields of an identity; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			idx, err := parseIndex(args[0], a.registry.Len())
			if err != nil {
				return err
			}
			cur, err := a.registry.IdentityAt(idx)
			if err != nil {
				return err
			}
			next, err := cur.Edit(f.name, f.idType, f.idNumber, f.phone)
			if err != nil {
				return err
			}
			if err := a.coord.UpdateIdentity(idx, next); err != nil {
				return err
			}
			if err := a.saveIdentities(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d %s.\n", idx+1, next.Name)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newIdentityDeleteCmd(h *appHolder) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Remove an identity; later identities move up and use the next lower port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := h.app
			idx, err := parseIndex(args[0], a.registry.Len())
			if err != nil {
				return err
			}
			gone, err := a.coord.DeleteIdentity(cmd.Context(), idx)
			if err != nil {
				return err
			}
			if err := a.saveIdentities(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", gone.Name)
			return nil
		},
	}
}

// mask hides all but the last keep runes.
func mask(s string, keep int) string {
	r := []rune(s)
	if len(r) <= keep {
		return s
	}
	return strings.Repeat("*", len(r)-keep) + string(r[len(r)-keep:])
}
