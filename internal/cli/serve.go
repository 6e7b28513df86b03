package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/server"
	"github.com/javelinws/javelin/internal/style"
)

var (
	// Serve command flags
	servePort    int
	serveHost    string
	serveMetrics bool
	serveCORS    bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local runtime control server",
	Long: `Start an HTTP server exposing the runtime catalog via REST API.

The server provides:
- REST API for listing, installing and removing runtimes
- WebSocket streaming of catalog change events
- Prometheus metrics endpoint`,
	Example: `
  javelin serve                          # Serve on localhost:7401
  javelin serve --port 8080 --host 0.0.0.0`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, reg, err := runtimeEnv()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), err.Error())
			os.Exit(1)
		}

		serverConfig := server.DefaultConfig()
		serverConfig.Host = serveHost
		serverConfig.Port = servePort
		serverConfig.EnableMetrics = serveMetrics
		serverConfig.EnableCORS = serveCORS
		if !cmd.Flags().Changed("host") {
			serverConfig.Host = cfg.ServerHost
		}
		if !cmd.Flags().Changed("port") {
			serverConfig.Port = cfg.ServerPort
		}

		installer := install.New(cfg, reg)
		srv := server.New(serverConfig, reg, installer, catalog.NewAdoptium(cfg.HTTPTimeout))

		addr := fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port)
		if !viper.GetBool("quiet") {
			style.Success(cmd.OutOrStdout(), fmt.Sprintf("Javelin control server starting at http://%s", addr))
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog: http://%s/api/v1/runtimes (%d runtimes)\n", addr, len(reg.List()))
			if serveMetrics {
				fmt.Fprintf(cmd.OutOrStdout(), "Metrics: http://%s/metrics\n", addr)
			}
		}

		if err := srv.StartWithGracefulShutdown(); err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Server error: %v", err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 7401, "server port")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "server host")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "enable Prometheus metrics endpoint")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", true, "enable CORS headers")
}
