package cli

import (
	"github.com/spf13/cobra"

	"image_to_pdf/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP conversion API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		return api.Serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
