package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vbonduro/islandlife/internal/domain"
)

var ingestSet string

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <image>",
		Short: "Store an image and print its reference",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	cmd.Flags().StringVar(&ingestSet, "set", "", "Also store the reference on the active pet: avatar, paw or nose")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	switch ingestSet {
	case "", "avatar", "paw", "nose":
	default:
		return fmt.Errorf("unknown --set target %q", ingestSet)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	remote, err := st.useRemote(ctx)
	if err != nil {
		st.logger.Warn("remote storage unavailable, encoding locally", "error", err)
	}

	res, err := st.assets.Ingest(ctx, filepath.Base(args[0]), data)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		cmd.PrintErrln("warning:", res.Warning)
	}

	if ingestSet != "" {
		var u domain.ProfileUpdate
		switch ingestSet {
		case "avatar":
			u.AvatarRef = &res.Ref
		case "paw":
			u.MarkRefA = &res.Ref
		case "nose":
			u.MarkRefB = &res.Ref
		}
		st.pets.UpdateProfile(ctx, u)
		if remote {
			if err := st.engine.Flush(ctx); err != nil {
				st.logger.Warn("failed to push snapshot", "error", err)
			}
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
