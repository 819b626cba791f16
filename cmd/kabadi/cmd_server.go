package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/config"
	"github.com/shashiranjanraj/kabadi/internal/bootstrap"
	"github.com/shashiranjanraj/kabadi/internal/kernel"
	"github.com/shashiranjanraj/kabadi/internal/server"
	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
	"github.com/shashiranjanraj/kabadi/pkg/middleware"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.Open(ctx)
		if err != nil {
			return err
		}
		trusted, err := middleware.ParseTrustedProxies(config.TrustedProxies())
		if err != nil {
			app.Close(context.Background())
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Close(closeCtx)
		}()

		g, ctx := errgroup.WithContext(ctx)
		k := kernel.NewHTTPKernel(ctx, app, kernel.Options{
			CORSOrigins:        config.CORSOrigins(),
			RateLimitPerMinute: config.RateLimitPerMinute(),
			StorageURL:         config.StorageURL(),
			TrustedProxies:     trusted,
		})

		g.Go(func() error {
			app.Hub.Run(ctx)
			return nil
		})
		g.Go(func() error {
			return server.Run(ctx, ":"+config.AppPort(), k.Handler())
		})

		err = g.Wait()
		logger.Info("serve: exited", "error", err)
		return err
	},
}

// route:list needs no backend, so the table is built over an in-memory store.
var routeListCmd = &cobra.Command{
	Use:     "route:list",
	Aliases: []string{"routes"},
	Short:   "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		app := bootstrap.Assemble(bootstrap.Deps{
			Store:  repositories.NewMemoryStore(),
			Issuer: auth.NewIssuer("route-list", time.Minute),
		})
		k := kernel.NewHTTPKernel(ctx, app, kernel.Options{})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range k.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
