package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/snapshot"
)

var exportOut string

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the full snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := snapshot.Encode(st.pets.Snapshot().Bundles)
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(exportOut, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	cmd.Printf("Exported %d entities to %s.\n", len(st.pets.Entities()), exportOut)
	return nil
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace local data with an exported snapshot",
		Long:  "Replace local data with an exported snapshot. Older exports are migrated. The bucket is not updated; run `islandlife sync push` afterwards to upload.",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}
	bundles, err := snapshot.Decode(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	next := &domain.Snapshot{Bundles: bundles, ActiveID: st.pets.ActiveID()}
	if err := st.pets.ReplaceAll(ctx, next); err != nil {
		return err
	}
	cmd.Printf("Imported %d entities.\n", len(bundles))
	return nil
}
