package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFmt    string
	keyField     string
	parserName   string
	regexPattern string
	refreshMS    int
	servePort    string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft — live metric tables from streaming logs",
	Long: `Weft follows metric log files (JSON lines, logfmt, or custom regex
formats) and renders them as a live, auto-updating table in your terminal.
Fields can be matched by name or regex pattern, formatted, renamed, and
tracked for best-seen values, which are highlighted as training improves.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.weft.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "live", "output mode: live, json")
	rootCmd.PersistentFlags().StringVarP(&keyField, "key", "k", "step", "field whose value identifies row boundaries")
	rootCmd.PersistentFlags().StringVarP(&parserName, "parser", "p", "auto", "line format: auto, json, logfmt, regex")
	rootCmd.PersistentFlags().StringVar(&regexPattern, "pattern", "", "regex with named capture groups (requires --parser regex)")
	rootCmd.PersistentFlags().IntVar(&refreshMS, "refresh", 100, "minimum milliseconds between table repaints")
	rootCmd.PersistentFlags().StringVar(&servePort, "serve", "", "serve the live dashboard on this port")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".weft")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
