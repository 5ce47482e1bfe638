package cmd

import (
	"fmt"
	"os"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "orgchart",
	Short: "Organizational Chart",
	Long:  `User registry and authentication service for the organizational chart.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*internal.Config, error) {
	return internal.LoadConfig(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yml and .env")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
