package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listUser string

func init() {
	listCmd.Flags().StringVarP(&listUser, "user", "u", "", "user name")
	_ = listCmd.MarkFlagRequired("user")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List files you own and files shared with you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		user, err := lookupUser(v, listUser)
		if err != nil {
			return err
		}

		own, err := v.Files.ListFilesByOwner(user.ID)
		if err != nil {
			return err
		}
		for _, f := range own {
			fmt.Printf("%s  %s  %d bytes  block %d\n", f.ID, color.YellowString(f.Filename), f.Size, f.BlockIndex)
		}

		grants, err := v.Shares.ListSharesByRecipient(user.ID)
		if err != nil {
			return err
		}
		for _, g := range grants {
			f, err := v.Files.GetFile(g.FileID)
			if err != nil {
				return err
			}
			ownerName := f.OwnerID
			if owner, err := v.Users.GetUser(f.OwnerID); err == nil {
				ownerName = owner.Name
			}
			fmt.Printf("%s  %s  %d bytes  shared by %s\n", f.ID, color.YellowString(f.Filename), f.Size, color.YellowString(ownerName))
		}

		if len(own) == 0 && len(grants) == 0 {
			fmt.Println("no files visible to " + user.Name)
		}
		return nil
	},
}
