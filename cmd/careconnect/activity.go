package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tavonga/careconnect/internal/activity"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Activity management commands",
	}

	cmd.AddCommand(newActivityCreateCmd())
	cmd.AddCommand(newActivityListCmd())
	cmd.AddCommand(newActivityShowCmd())
	cmd.AddCommand(newActivityRetireCmd())
	cmd.AddCommand(newActivitySummaryCmd())
	return cmd
}

func newActivityCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		category    string
		difficulty  string
		duration    int
		goalID      string
		weight      int
		createdBy   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new activity",
		Long:  "Creates an activity in the CareConnect catalogue with an auto-generated ID.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := activity.CreateOpts{
				Name:                   name,
				Description:            description,
				Category:               category,
				Difficulty:             difficulty,
				PrimaryGoalID:          goalID,
				GoalContributionWeight: weight,
				CreatedByID:            createdBy,
			}
			if cmd.Flags().Changed("duration") {
				opts.EstimatedDuration = &duration
			}

			a, err := activity.Create(gormDB, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created activity %s\n", a.ID)
			fmt.Fprintf(out, "Category: %s, difficulty: %s\n", a.Category, a.Difficulty)
			if a.PrimaryGoalID != nil {
				fmt.Fprintf(out, "Primary goal: %s (weight %d)\n", *a.PrimaryGoalID, a.GoalContributionWeight)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&name, "name", "", "activity name (required)")
	cmd.Flags().StringVar(&description, "description", "", "detailed description")
	cmd.Flags().StringVar(&category, "category", "", "category (daily_living, social, educational, recreational, therapeutic, other)")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "difficulty (easy, medium, hard)")
	cmd.Flags().IntVar(&duration, "duration", 0, "estimated duration in minutes")
	cmd.Flags().StringVar(&goalID, "goal", "", "primary goal ID")
	cmd.Flags().IntVar(&weight, "weight", 0, "goal contribution weight")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "creating user ID (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("created-by")
	return cmd
}

func newActivityListCmd() *cobra.Command {
	var (
		configPath string
		category   string
		difficulty string
		goalID     string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities",
		Long:  "Lists activities with optional filters. Retired activities are hidden unless --all is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			filters := activity.ListFilters{
				Category:   category,
				Difficulty: difficulty,
				GoalID:     goalID,
			}
			if !all {
				active := true
				filters.Active = &active
			}

			activities, err := activity.List(gormDB, filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(activities) == 0 {
				fmt.Fprintln(out, "No activities found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDIFFICULTY\tACTIVE")
			for _, a := range activities {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
					a.ID, truncate(a.Name, 40), a.Category, a.Difficulty, a.Active)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "filter by difficulty")
	cmd.Flags().StringVar(&goalID, "goal", "", "filter by linked goal")
	cmd.Flags().BoolVar(&all, "all", false, "include retired activities")
	return cmd
}

func newActivityShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show activity details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			a, err := activity.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", a.ID)
			fmt.Fprintf(out, "Name:        %s\n", a.Name)
			fmt.Fprintf(out, "Category:    %s\n", a.Category)
			fmt.Fprintf(out, "Difficulty:  %s\n", a.Difficulty)
			fmt.Fprintf(out, "Active:      %t\n", a.Active)
			if a.EstimatedDuration != nil {
				fmt.Fprintf(out, "Duration:    %d min\n", *a.EstimatedDuration)
			}
			if a.PrimaryGoalID != nil {
				fmt.Fprintf(out, "Goal:        %s (weight %d)\n", *a.PrimaryGoalID, a.GoalContributionWeight)
			}
			fmt.Fprintf(out, "Created:     %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))

			if a.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", a.Description)
			}
			if a.Instructions != "" {
				fmt.Fprintf(out, "\nInstructions:\n%s\n", a.Instructions)
			}

			rate, err := activity.CompletionRate(gormDB, a.ID)
			if err == nil {
				fmt.Fprintf(out, "\nCompletion rate: %.1f%%\n", rate)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}

func newActivityRetireCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "retire <id>",
		Short: "Retire an activity",
		Long:  "Marks an activity inactive. Historical logs and schedules are preserved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := activity.Retire(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retired activity %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}

func newActivitySummaryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show activity counts by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			counts, err := activity.Summary(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No activities found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tCOUNT")
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%d\n", c.Category, c.Count)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}
