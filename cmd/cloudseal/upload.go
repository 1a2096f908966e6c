package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cloudsealorg/libcloudseal-go/vault"
)

var (
	uploadUser string
	uploadAs   string
)

func init() {
	uploadCmd.Flags().StringVarP(&uploadUser, "user", "u", "", "owner user name")
	_ = uploadCmd.MarkFlagRequired("user")
	uploadCmd.Flags().StringVar(&uploadAs, "as", "", "stored filename (default: base name of the path)")
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Encrypt a file and store it in the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		owner, err := lookupUser(v, uploadUser)
		if err != nil {
			return err
		}

		name := uploadAs
		if name == "" {
			name = filepath.Base(args[0])
		}

		f, err := v.Upload(&vault.UploadOpts{OwnerID: owner.ID, Filename: name, Content: content})
		if err != nil {
			return err
		}
		Logger.Infof("key recorded at block %d, blob %s", f.BlockIndex, f.BlobKey)
		fmt.Printf("%s uploaded %s (%d bytes) as %s\n", color.GreenString("✓"), color.YellowString(name), f.Size, f.ID)
		return nil
	},
}
