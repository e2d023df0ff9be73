package main

import (
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Encode or decode grid status hashes",
}

var hashEncodeCmd = &cobra.Command{
	Use:     "encode key=value...",
	Short:   "Build a status hash from ordered key=value pairs",
	Example: "  lattice hash encode gridId1=pets gridParentId1=7 page1=2",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.EncodeHash(os.Stdout, args)
	},
}

var hashDecodeCmd = &cobra.Command{
	Use:     "decode hash",
	Short:   "Print the keys of a status hash and the depth it addresses",
	Example: "  lattice hash decode '#gridId1=pets&gridParentId1=7&page1=2'",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.DecodeHash(os.Stdout, args[0])
	},
}

func init() {
	hashCmd.AddCommand(hashEncodeCmd, hashDecodeCmd)
	rootCmd.AddCommand(hashCmd)
}
