package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configPath, logPath string

	rootCmd := &cobra.Command{
		Use:     "daftaren",
		Short:   "Tournament registration and payment proof bot",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "config.yml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "/var/log/", "path to log file directory")

	rootCmd.AddCommand(serveCmd(&configPath, &logPath))
	rootCmd.AddCommand(pendingCmd(&configPath))
	rootCmd.AddCommand(exportCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
