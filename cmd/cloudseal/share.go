package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	shareUser string
	shareWith string
)

func init() {
	shareCmd.Flags().StringVarP(&shareUser, "user", "u", "", "owner user name")
	_ = shareCmd.MarkFlagRequired("user")
	shareCmd.Flags().StringVarP(&shareWith, "with", "w", "", "recipient user name")
	_ = shareCmd.MarkFlagRequired("with")
}

var shareCmd = &cobra.Command{
	Use:   "share <file>",
	Short: "Grant another user access to a file you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		owner, err := lookupUser(v, shareUser)
		if err != nil {
			return err
		}
		recipient, err := lookupUser(v, shareWith)
		if err != nil {
			return err
		}
		f, err := resolveFile(v, owner, args[0])
		if err != nil {
			return err
		}

		grant, err := v.Share(f.ID, owner.ID, recipient.ID)
		if err != nil {
			return err
		}
		Logger.Infof("grant recorded at block %d", grant.BlockIndex)
		fmt.Printf("%s shared %s with %s\n", color.GreenString("✓"),
			color.YellowString(f.Filename), color.YellowString(recipient.Name))
		return nil
	},
}
