package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	downloadUser string
	downloadOut  string
)

func init() {
	downloadCmd.Flags().StringVarP(&downloadUser, "user", "u", "", "requesting user name")
	_ = downloadCmd.MarkFlagRequired("user")
	downloadCmd.Flags().StringVarP(&downloadOut, "out", "o", "", "output path ('-' for stdout, default: the stored filename)")
}

var downloadCmd = &cobra.Command{
	Use:   "download <file>",
	Short: "Decrypt and retrieve a file you own or were granted",
	Long: `Download decrypts a file for an authorized user. The file may be
referenced by its ID or by filename; filenames are resolved against
the user's own uploads first, then against files shared with them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		user, err := lookupUser(v, downloadUser)
		if err != nil {
			return err
		}
		f, err := resolveFile(v, user, args[0])
		if err != nil {
			return err
		}

		plain, f, err := v.Download(f.ID, user.ID)
		if err != nil {
			return err
		}

		out := downloadOut
		if out == "-" {
			_, err := os.Stdout.Write(plain)
			return err
		}
		if out == "" {
			out = f.Filename
		}
		if err := os.WriteFile(out, plain, 0600); err != nil {
			return err
		}
		fmt.Printf("%s wrote %s (%d bytes)\n", color.GreenString("✓"), out, len(plain))
		return nil
	},
}
