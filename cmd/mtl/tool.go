package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/mtlstore/mtl/internal/mtlcore"
)

func newToolCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Low-level debugging helpers",
	}
	cmd.AddCommand(newToolRedbCmd(gf))
	return cmd
}

func newToolRedbCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "redb [path]",
		Short: "Dump every bucket and key in a packed KV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := mtlcore.Open(gf.repoDir, gf.threads)
			if err != nil {
				return err
			}

			path := filepath.Join(repo.MtlDir, "pack", "packed.redb")
			if len(args) == 1 {
				path = args[0]
			}

			db, err := bolt.Open(path, 0o644, &bolt.Options{ReadOnly: true})
			if err != nil {
				return fmt.Errorf("%w: opening %s: %v", mtlcore.ErrIO, path, err)
			}
			defer db.Close() //nolint:errcheck // read-only open, nothing to flush

			return db.View(func(tx *bolt.Tx) error {
				return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
					return b.ForEach(func(k, v []byte) error {
						fmt.Printf("%s\t%s\t%s\n", name, k, v)
						return nil
					})
				})
			})
		},
	}
}
