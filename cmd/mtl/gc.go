package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newGCCmd(gf *globalFlags) *cobra.Command {
	var dry bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Sweep objects unreachable from HEAD and every ref",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}
			result, err := repo.GC(dry)
			if err != nil {
				return err
			}

			cw, err := colorWriter(gf)
			if err != nil {
				return err
			}

			if dry {
				for _, id := range result.Unreachable {
					fmt.Println(id)
				}
				fmt.Fprintln(cw, cw.Yellow(fmt.Sprintf("%d unreachable object(s)", len(result.Unreachable))))
				return nil
			}

			for _, e := range result.Errors {
				fmt.Fprintln(cw, cw.Red(fmt.Sprintf("gc: %v", e)))
			}
			fmt.Fprintln(cw, cw.Green(fmt.Sprintf("deleted %d object(s)", result.Deleted)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dry, "dry", false, "print unreachable objects instead of deleting them")
	return cmd
}
