package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newRefCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ref",
		Short: "Manage named pointers into the object store",
	}
	cmd.AddCommand(newRefSaveCmd(gf), newRefDeleteCmd(gf), newRefListCmd(gf))
	return cmd
}

func newRefSaveCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> [<expr>]",
		Short: "Create or overwrite a ref (defaults to HEAD)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			expr := "HEAD"
			if len(args) == 2 {
				expr = args[1]
			}
			id, err := repo.Resolver.Resolve(expr)
			if err != nil {
				return err
			}
			return repo.Refs.Save(args[0], id)
		},
	}
}

func newRefDeleteCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a ref",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			return repo.Refs.Delete(args[0])
		},
	}
}

func newRefListCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every ref, sorted by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			entries, err := repo.Refs.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\n", e.OID, e.Name)
			}
			return nil
		},
	}
}
