package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardly-cli/internal/dashboard"
)

// Variables to hold flag values
var serviceAction string // "install", "uninstall", "start", "stop"

// program implements the kardianos/service interface
type program struct {
	listen string
	dash   *dashboard.Server
	server *http.Server
	log    *slog.Logger
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	p.server = &http.Server{
		Addr:              p.listen,
		Handler:           p.dash.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(p.log.Handler(), slog.LevelError),
	}
	p.done = make(chan struct{})
	go p.run()
	return nil
}

func (p *program) run() {
	defer close(p.done)
	p.log.Info("dashboard listening", "addr", p.listen)
	if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		p.log.Error("http server stopped", "error", err)
	}
}

func (p *program) Stop(s service.Service) error {
	p.log.Info("stopping dashboard")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.server.Shutdown(ctx); err != nil {
		p.log.Warn("server forced to shutdown", "error", err)
	}
	<-p.done
	// Open live feeds and configurator sessions go with the server.
	p.dash.Close()
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin dashboard",
	Long: `Serves the web dashboard: camera and user directories, forms, the live view
and the detection zone configurator, plus /metrics and /healthz.
Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		api, s, log := setup()

		listen := s.Dashboard.Listen

		svcConfig := &service.Config{
			Name:        "guardly-dashboard",
			DisplayName: "Guardly Dashboard",
			Description: "Camera and user administration dashboard for Guardly",
			// Arguments passed to the binary when run as a service
			Arguments: []string{"serve", "--listen", listen},
		}
		if used := viper.ConfigFileUsed(); used != "" {
			svcConfig.Arguments = append(svcConfig.Arguments, "--config", used)
		}

		// Service control does not need a running dashboard.
		if serviceAction != "" {
			svc, err := service.New(&program{log: log}, svcConfig)
			must(err, "configuring service")
			must(service.Control(svc, serviceAction), serviceAction+" service")
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		dash, err := dashboard.New(dashboard.Config{
			API:           api,
			PageSize:      s.PageSize,
			SessionSecret: s.Dashboard.SessionSecret,
			CacheTTL:      s.Dashboard.CacheTTL,
			ConfigTTL:     s.Dashboard.ConfigTTL,
			Feed:          feedOptions(s, log),
			MaxFPS:        s.Feed.MaxFPS,
			Logger:        log,
		})
		must(err, "starting dashboard")

		prg := &program{listen: listen, dash: dash, log: log}
		svc, err := service.New(prg, svcConfig)
		must(err, "configuring service")

		// Blocks until the service manager or an interrupt stops it.
		must(svc.Run(), "running dashboard")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Address to listen on (overrides dashboard.listen, default :8080)")
	serveCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
	_ = viper.BindPFlag("dashboard.listen", serveCmd.Flags().Lookup("listen"))
}
