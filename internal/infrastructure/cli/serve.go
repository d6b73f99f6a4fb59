package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doeshing/zai-go/internal/app"
	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/infrastructure/cache"
	"github.com/doeshing/zai-go/internal/infrastructure/server"
	"github.com/doeshing/zai-go/internal/ports"
	"github.com/doeshing/zai-go/internal/services"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the completion service in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := container.Config
			addr := cfg.Server.Addr()

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				// Only a busy port warrants the occupant check; permission and
				// routing failures surface as plain bind errors.
				if !errors.Is(err, syscall.EADDRINUSE) {
					return fmt.Errorf("bind %s: %w", addr, err)
				}
				// A healthy sibling on the port means there is nothing to do.
				if container.Manager.Healthy() {
					fmt.Fprintf(cmd.OutOrStdout(), "service already running on %s\n", addr)
					return nil
				}
				return &ExitError{
					Code:    2,
					Message: fmt.Sprintf("cannot bind %s: %v", addr, domain.ErrPortForeignOccupant),
				}
			}

			record := domain.ServerRecord{
				PID:       os.Getpid(),
				Host:      cfg.Server.Host,
				Port:      cfg.Server.Port,
				StartedAt: time.Now(),
			}
			if err := container.Records.Write(record); err != nil {
				container.Logger.Warn("failed to write process records", map[string]interface{}{"error": err.Error()})
			}
			defer container.Records.Remove()

			gateway := services.NewGateway(cfg, container.EngineFactory, container.Logger)
			defer gateway.Close()

			suggestionCache := cache.NewSuggestionCache(cfg.Cache.TTLDuration(), cfg.Cache.MaxEntries)

			var suggestionStore ports.SuggestionStore
			if store, err := container.OpenStore(); err != nil {
				container.Logger.Warn("suggestion log unavailable", map[string]interface{}{"error": err.Error()})
			} else {
				defer store.Close()
				suggestionStore = store
			}

			service := server.New(gateway, suggestionCache, suggestionStore, container.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return service.Serve(listener)
			})
			group.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return service.Shutdown(shutdownCtx)
			})

			container.Logger.Info("completion service listening", map[string]interface{}{
				"addr": addr,
				"pid":  record.PID,
			})
			return group.Wait()
		},
	}
}
