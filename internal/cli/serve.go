package cli

import (
	"github.com/spf13/cobra"

	"skillmatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for resume analysis",
	Long: `Start an HTTP server that scores uploaded resumes against role keyword profiles.

Available endpoints:
- POST /api/resume/analyze: Analyze an uploaded resume (multipart field "resume", optional "targetRole")
- GET /api/resume/roles: List the supported roles
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	configFlag(serveCmd, "port", "server.port")
	configFlag(serveCmd, "host", "server.host")
	configFlag(serveCmd, "tls-mode", "server.tls.mode")
	configFlag(serveCmd, "cert-file", "server.tls.certFile")
	configFlag(serveCmd, "key-file", "server.tls.keyFile")
	configFlag(serveCmd, "ca-file", "server.tls.caFile")
}

func runServe(cmd *cobra.Command, _ []string) error {
	app := getAppFromContext(cmd.Context())
	return newServer(app).Start(cmd.Context())
}

// newServer builds the HTTP server from the loaded configuration
func newServer(app *App) *server.Server {
	cfg := app.Config
	serverCfg := server.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      Version,
		TLSConfig:    cfg.Server.TLS,
		APIKeys:      cfg.Server.APIKeys,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		MaxFileSize:  cfg.App.MaxFileSize,
		UploadDir:    cfg.App.UploadDir,
		DefaultRole:  cfg.App.DefaultRole,
		RateLimit:    &cfg.Server.RateLimit,
		Roles:        app.Roles,
		Source:       app.Source,
	}
	return server.NewServer(cfg, serverCfg, app.Logger)
}
