package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	api *apiClient
)

func defaultServer() string {
	if s := os.Getenv("RCD_SERVER"); s != "" {
		return s
	}
	if url := activeRemoteURL(); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("RCD_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "rcd",
	Short: "CLI for the krecords record engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		api = newAPIClient(serverURL, authToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(objectCmd)
	rootCmd.AddCommand(fieldCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(relCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(operatorsCmd)
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
