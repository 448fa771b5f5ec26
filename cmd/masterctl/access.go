package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fatflowers/masterclass/internal/app/service/access"
)

// operatorCaller identifies CLI lookups in access evaluations.
const operatorCaller = "masterctl"

func accessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Evaluate course access",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [user-id] [course-id]",
		Short: "Report whether a user may open a course and why",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *access.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				acc, err := svc.Evaluate(ctx, operatorCaller, args[0], args[1])
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(acc)
			}, &svc)
		},
	})
	return cmd
}
