package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cloudsealorg/libcloudseal-go/config"
	"github.com/cloudsealorg/libcloudseal-go/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up the data directory, config file and key ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		path := configPath
		if path == "" {
			path = config.ConfigPath(cfg.DataDir)
		}

		existing, err := config.LoadConfig(path)
		switch {
		case err == nil:
			cfg = existing
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			fmt.Println(color.YellowString("!") + " config already exists at " + path)
		case errors.Is(err, config.ErrConfigNotFound):
			if err := config.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Println(color.GreenString("✓") + " wrote " + path)
		default:
			return err
		}

		v, err := vault.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer v.Close()

		boot := v.Boot
		switch {
		case boot.Created:
			fmt.Println(color.GreenString("✓") + " created key ledger (genesis block)")
		case boot.Repaired:
			fmt.Println(color.YellowString("!") + " key ledger was invalid and has been rebuilt")
		default:
			fmt.Printf("%s key ledger loaded (%d blocks)\n", color.GreenString("✓"), boot.Hydrated)
		}
		if !boot.Valid {
			fmt.Println(color.RedString("✗") + " ledger failed validation, run " +
				color.YellowString("cloudseal chain repair"))
		}

		fmt.Println(color.GreenString("✓") + " vault ready in " + cfg.DataDir)
		return nil
	},
}
