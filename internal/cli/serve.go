package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gzhole/promptshield/internal/hook"
	"github.com/gzhole/promptshield/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classifier over HTTP",
	Long: `Run a long-lived HTTP server that classifies prompts and appends to the
same audit sinks as the hook.

  POST /v1/classify   {"prompt": "..."}
  GET  /healthz

  promptshield serve --addr 127.0.0.1:8087`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	addr := rt.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filter := hook.NewFilter(rt.engine(), rt.auditSink(ctx), rt.log)
	srv := server.New(filter, rt.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		rt.log.Info().Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
