package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/islandlife/internal/web"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.engine.Configure(ctx, st.remoteConfig(ctx)); err != nil {
		st.logger.Warn("remote sync unavailable, running local-only", "error", err)
	}

	server := web.NewServer(st.pets, st.assets, st.engine, st.adapter, st.advisor, st.logger)
	return server.ListenAndServe(ctx, st.cfg.ListenAddr)
}
