package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/islandlife/internal/domain"
)

var errRemoteNotConfigured = errors.New("remote storage is not configured; run `islandlife sync config` first")

var remoteFlags domain.RemoteConfig

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Transfer the full snapshot to or from the bucket",
	}

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Replace local data with the bucket snapshot",
		Args:  cobra.NoArgs,
		RunE:  runSyncPull,
	}
	push := &cobra.Command{
		Use:   "push",
		Short: "Upload the local snapshot to the bucket now",
		Args:  cobra.NoArgs,
		RunE:  runSyncPush,
	}
	configure := &cobra.Command{
		Use:   "config",
		Short: "Save bucket credentials",
		Args:  cobra.NoArgs,
		RunE:  runSyncConfig,
	}
	configure.Flags().StringVar(&remoteFlags.AccessID, "access-id", "", "Access key id")
	configure.Flags().StringVar(&remoteFlags.AccessSecret, "access-secret", "", "Access key secret")
	configure.Flags().StringVar(&remoteFlags.BucketName, "bucket", "", "Bucket name, e.g. pets-1250000000")
	configure.Flags().StringVar(&remoteFlags.Region, "region", "", "Bucket region, e.g. ap-guangzhou")

	cmd.AddCommand(pull, push, configure)
	return cmd
}

func runSyncPull(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ok, err := st.useRemote(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errRemoteNotConfigured
	}

	pulled, err := st.engine.Pull(ctx)
	if err != nil {
		return err
	}
	if !pulled {
		cmd.Println("No remote data yet; local data unchanged.")
		return nil
	}
	cmd.Printf("Pulled %d entities.\n", len(st.pets.Entities()))
	return nil
}

func runSyncPush(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ok, err := st.useRemote(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errRemoteNotConfigured
	}

	if err := st.engine.Flush(ctx); err != nil {
		return err
	}
	cmd.Printf("Pushed %d entities.\n", len(st.pets.Entities()))
	return nil
}

func runSyncConfig(cmd *cobra.Command, args []string) error {
	if !remoteFlags.Complete() {
		return fmt.Errorf("--access-id, --access-secret, --bucket and --region are all required")
	}

	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.adapter.SaveRemoteConfig(ctx, remoteFlags); err != nil {
		return err
	}
	cmd.Printf("Saved credentials for bucket %s (%s).\n", remoteFlags.BucketName, remoteFlags.Region)
	return nil
}
