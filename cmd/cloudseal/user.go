package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage vault users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a user with a fresh P-256 keypair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		u, err := v.CreateUser(args[0])
		if err != nil {
			return err
		}
		Logger.Infof("user id %s", u.ID)
		fmt.Printf("%s created user %s (%s)\n", color.GreenString("✓"), color.YellowString(u.Name), u.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		users, err := v.Users.ListUsers()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("no users yet, create one with 'cloudseal user add <name>'")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%s  %s  created %s\n", u.ID, color.YellowString(u.Name), u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}
