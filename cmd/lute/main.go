package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/franz/lute-composers/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "lute",
		Short: "Lute composers - scrape, parse, merge and geocode composer biographies",
		Long: `lute builds a table of lute composers with their birth and death
years, towns and countries.

It scrapes biographies from two web sources, downloads the MIDI files of
the lute tablature table, parses and merges the scraped text into one CSV,
and geocodes the towns of that CSV. Each step is its own sub-command and
reads the output file of the previous one.`,
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetVerbose(viper.GetBool("verbose"))
			util.SetQuiet(viper.GetBool("quiet"))
			if !util.IsTerminal(os.Stderr.Fd()) {
				util.SetColors(false)
			}
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/lute.yaml)")
	rootCmd.PersistentFlags().String("db", "lute-state.db", "state database file")
	rootCmd.PersistentFlags().String("data-dir", ".", "directory of the JSON and CSV data files")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "directory for event logs and reports")
	rootCmd.PersistentFlags().String("encoding", "latin-1", "text encoding of the composer CSV files (latin-1 or utf-8)")
	rootCmd.PersistentFlags().IntP("concurrency", "c", 0, "parallel workers (default min(32, CPUs+4))")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	for _, name := range []string{"db", "data-dir", "artifacts", "encoding", "concurrency", "verbose", "quiet"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("lute")
		viper.SetConfigType("yaml")
	}

	// LUTE_POSITIONSTACK_KEY, LUTE_DATA_DIR, ...
	viper.SetEnvPrefix("LUTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
