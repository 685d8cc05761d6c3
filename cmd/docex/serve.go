package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/docex/internal/config"
	"github.com/jackzampolin/docex/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docex server",
	Long: `Start the docex HTTP server.

The listener comes up first so /health answers immediately; the
recognition backend (store, rasterizer, Tesseract) is built next.
Endpoints that need it return 503 until it is ready.

Config is read from --config, ./config.yaml or ~/.docex/config.yaml,
and reloaded when the file changes (LLM providers are rebuilt).

Examples:
  docex serve                    # Start on default port 8000
  docex serve --port 3000        # Start on custom port
  docex serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, err := loadHome()
		if err != nil {
			return err
		}

		cfgMgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()
		logger := newLogger(cfg.Log)
		cfgMgr.SetLogger(logger)
		cfgMgr.WatchConfig()

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			ReadTimeout:   cfg.Server.ReadTimeout,
			WriteTimeout:  cfg.Server.WriteTimeout,
			ConfigManager: cfgMgr,
			Home:          h,
			Init:          backendInit(cfgMgr, h, logger),
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8000", "Port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}
