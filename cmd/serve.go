package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cainy/dockhand/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Start the HTTP server that receives registry notifications and dispatches registry events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
