package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/islandlife/internal/advisor"
)

var (
	advicePet string
	adviceAge string
)

func adviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advice <question>",
		Short: "Ask the care advisor about the active pet",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAdvice,
	}
	cmd.Flags().StringVar(&advicePet, "pet", "", "Pet type (default: breed of the active pet)")
	cmd.Flags().StringVar(&adviceAge, "age", "", "Pet age (default: birthdate of the active pet)")
	return cmd
}

func runAdvice(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	active := st.pets.Active().Entity
	req := advisor.AdviceRequest{
		PetType:  advicePet,
		Age:      adviceAge,
		Question: strings.Join(args, " "),
	}
	if req.PetType == "" {
		req.PetType = active.Breed
	}
	if req.Age == "" {
		req.Age = "born " + active.Birthdate
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), st.advisor.Advise(ctx, req))
	return err
}
