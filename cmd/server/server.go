package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rtunnel/cmd/root"
	"rtunnel/controllers"
	"rtunnel/internal/config"
	"rtunnel/internal/logger"
	"rtunnel/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve tunnel status over HTTP",
	Long: `Start a local HTTP API reporting the resolved configuration and the tunnel
state, with Prometheus metrics on /metrics. With --watchdog the tunnel is
also checked, and relaunched when missing, on the given cron schedule.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return startServer(ctx, cmd)
	},
}

const serverExample = `  # status API on the default address
  rtunnel server -c /etc/rtunnel.conf

  # also keep the tunnel alive without cron
  rtunnel server -c /etc/rtunnel.conf --watchdog "*/5 * * * *"`

func startServer(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := root.ResolveConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("listen") {
		config.Config.Server.Address, _ = flags.GetString("listen")
	}
	if flags.Changed("socket") {
		config.Config.Server.Socket, _ = flags.GetString("socket")
	}

	gin.SetMode(config.Config.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	svc := services.NewStatusService(cfg)
	svc.Version = root.RootCmd.Version
	controllers.NewAPIController(svc).RegisterRoutes(router)

	if flags.Changed("watchdog") {
		schedule, _ := flags.GetString("watchdog")
		if schedule == "" {
			schedule = config.Config.Watchdog.Schedule
		}
		sched := services.NewWatchdogScheduler(svc, schedule)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("invalid watchdog schedule %q: %w", schedule, err)
		}
		defer sched.Stop()
	}

	addrs := []ListenAddr{{Network: "tcp", Address: config.Config.Server.Address}}
	if config.Config.Server.Socket != "" {
		addrs = append(addrs, ListenAddr{Network: "unix", Address: config.Config.Server.Socket})
	}
	listeners, err := CreateListeners(addrs)
	if len(listeners) == 0 {
		return fmt.Errorf("no listener available: %w", err)
	}

	srv := &http.Server{Handler: router}
	errCh := make(chan error, len(listeners))
	for _, l := range listeners {
		go func(l net.Listener) {
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(l)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down status server")
	case err = <-errCh:
		logger.Errorf("Status server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}

func init() {
	serverCmd.Flags().String("listen", "", "TCP address to listen on (default from RTUNNEL_SERVER_ADDRESS or 127.0.0.1:20080)")
	serverCmd.Flags().String("socket", "", "Also listen on this unix socket")
	serverCmd.Flags().String("watchdog", "", "Cron schedule for in-process watchdog checks")

	root.RootCmd.AddCommand(serverCmd)
	serverCmd.Example = serverExample
}
