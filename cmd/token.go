package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cainy/dockhand/internal/app"
)

var notifyTokenTTL time.Duration

var notifyTokenCmd = &cobra.Command{
	Use:   "notify-token",
	Short: "Mint a webhook bearer token",
	Long: `Mint a bearer token scoped to posting registry notifications.
Configure it as the Authorization header of the registry's webhook endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := app.NotifyToken(cfgFile, notifyTokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyTokenCmd)
	notifyTokenCmd.Flags().DurationVar(&notifyTokenTTL, "ttl", 720*time.Hour, "token lifetime")
}
