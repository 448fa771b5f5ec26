package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fatflowers/masterclass/internal/app/repository"
	"github.com/fatflowers/masterclass/internal/app/service/catalog"
	"github.com/fatflowers/masterclass/internal/models"
)

func coursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Inspect and seed the course catalog",
	}
	cmd.AddCommand(coursesListCmd(), coursesAddCmd())
	return cmd
}

func coursesListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var svc *catalog.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				courses, err := svc.ListCourses(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(courses)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tPRICE")
				for _, c := range courses {
					fmt.Fprintf(tw, "%s\t%s\t%.2f\n", c.ID, c.Title, c.Price)
				}
				return tw.Flush()
			}, &svc)
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func coursesAddCmd() *cobra.Command {
	var (
		description string
		imageURL    string
		price       float64
	)
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a course to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if price <= 0 {
				return fmt.Errorf("--price must be positive")
			}
			var repo repository.Repository
			return withApp(cmd.Context(), func(ctx context.Context) error {
				c := &models.Course{Title: args[0], Description: description, ImageURL: imageURL, Price: price}
				if err := repo.SaveCourse(ctx, c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.ID)
				return nil
			}, &repo)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Course description")
	cmd.Flags().StringVar(&imageURL, "image", "", "Course image URL")
	cmd.Flags().Float64VarP(&price, "price", "p", 0, "Price in major currency units")
	return cmd
}
