package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/homedeck/internal/app"
	"github.com/Dicklesworthstone/homedeck/internal/camera"
	"github.com/Dicklesworthstone/homedeck/internal/entity"
	"github.com/Dicklesworthstone/homedeck/internal/hass"
)

var camerasAddr string

var camerasCmd = &cobra.Command{
	Use:   "serve-cameras",
	Short: "Serve the camera discovery API",
	Long: `Connects to Home Assistant and serves a small HTTP API over the live
entity snapshot:

  GET /api/cameras                       List camera entities
  GET /api/streams?camera=<id>&type=...  Resolve a stream URL (mjpeg, source)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := hass.NewClient(cfg.WebSocketURL(), cfg.Server.Token)
		store := entity.NewStore()
		// Same lifecycle wiring as the dashboard: the snapshot reloads
		// on every reconnect instead of going stale after the first drop.
		app.FeedEntityStore(client, store)

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("connecting: %w", err)
		}
		defer client.Disconnect()

		addr := camerasAddr
		if addr == "" {
			addr = cfg.Cameras.ListenAddr
		}
		srv := camera.NewServer(store, cfg.Server.URL)
		fmt.Fprintf(os.Stderr, "Serving camera API on http://%s\n", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	camerasCmd.Flags().StringVar(&camerasAddr, "listen", "", "Listen address (default from config)")
	rootCmd.AddCommand(camerasCmd)
}
