package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Inspect and maintain the key ledger",
}

var chainStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger length, tail and collaborator health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		info, err := v.ChainInfo()
		if err != nil {
			return err
		}
		fmt.Printf("blocks:  %d\n", info.Length)
		if info.Length > 0 {
			fmt.Printf("tail:    block %d (%s)\n", info.LatestIndex, shortHash(info.LatestHash))
		}
		if info.Valid {
			fmt.Println("chain:   " + color.GreenString("valid"))
		} else {
			fmt.Printf("chain:   %s at block %d (%s)\n", color.RedString("TAMPERED"), info.Tamper.Index, info.Tamper.Reason)
		}

		h := v.Health()
		fmt.Printf("records: %s\n", okMark(h.Records))
		fmt.Printf("blobs:   %s\n", okMark(h.Blobs))
		return nil
	},
}

var chainVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate every block hash and link",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		info, err := v.ChainInfo()
		if err != nil {
			return err
		}
		if info.Valid {
			fmt.Printf("%s chain valid (%d blocks)\n", color.GreenString("✓"), info.Length)
			return nil
		}
		fmt.Printf("%s chain tampered at block %d: %s\n", color.RedString("✗"), info.Tamper.Index, info.Tamper.Reason)
		return info.Tamper
	},
}

var chainRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Rebuild an invalid ledger from a fresh genesis block",
	Long: `Repair opens the vault, which validates the ledger and rebuilds it
from a fresh genesis block when it is invalid. Rebuilding requires the
startup lock; if another process holds it, the damage is only reported.

Rebuilding discards all recorded keys. Files whose key records are lost
cannot be decrypted afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		boot := v.Boot
		switch {
		case boot.Repaired:
			fmt.Println(color.YellowString("!") + " ledger was invalid and has been rebuilt")
		case boot.Valid:
			fmt.Println(color.GreenString("✓") + " ledger is healthy, nothing to repair")
		default:
			fmt.Println(color.RedString("✗") + " ledger is invalid and could not be rebuilt (startup lock not acquired)")
			return fmt.Errorf("repair requires the startup lock")
		}
		return nil
	},
}

// okMark renders a boolean health probe.
func okMark(ok bool) string {
	if ok {
		return color.GreenString("ok")
	}
	return color.RedString("failed")
}

func init() {
	chainCmd.AddCommand(chainStatusCmd)
	chainCmd.AddCommand(chainVerifyCmd)
	chainCmd.AddCommand(chainRepairCmd)
}
