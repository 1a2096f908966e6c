package main

import (
	"os"

	"github.com/spf13/cobra"

	logger "github.com/cloudsealorg/libcloudseal-go/internal/logging"
)

var (
	configPath string
	dataDir    string
	verbose    bool
	debug      bool

	Logger logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cloudseal",
	Short: "CloudSeal - an encrypted file vault with a tamper-evident key ledger",
	Long: `CloudSeal stores files encrypted at rest and tracks every content key
on an append-only hash chain, so key history cannot be rewritten
without detection.

Files are sealed under per-file AES-256 keys. Each key is wrapped to
its owner's P-256 public key and recorded on the ledger; sharing
re-wraps the key for the recipient without ever exposing it.

Run 'cloudseal init' once to set up the data directory, then
'cloudseal user add' to create your first user.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{Verbose: verbose, Debug: debug}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default <data-dir>/config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.cloudseal)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(chainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
