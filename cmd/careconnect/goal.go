package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tavonga/careconnect/internal/goal"
)

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Goal management commands",
	}

	cmd.AddCommand(newGoalCreateCmd())
	cmd.AddCommand(newGoalListCmd())
	cmd.AddCommand(newGoalShowCmd())
	cmd.AddCommand(newGoalAssignCmd())
	cmd.AddCommand(newGoalRecomputeCmd())
	cmd.AddCommand(newGoalSummaryCmd())
	return cmd
}

func newGoalCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		desc       string
		category   string
		targetDate string
		priority   string
		threshold  int
		carers     []string
		createdBy  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := goal.CreateOpts{
				Name:                name,
				Description:         desc,
				Category:            category,
				Priority:            priority,
				CompletionThreshold: threshold,
				CarerIDs:            carers,
				CreatedByID:         createdBy,
			}
			if targetDate != "" {
				d, err := time.Parse("2006-01-02", targetDate)
				if err != nil {
					return fmt.Errorf("target-date must be YYYY-MM-DD")
				}
				opts.TargetDate = &d
			}

			g, err := goal.Create(gormDB, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created goal %s\n", g.ID)
			fmt.Fprintf(out, "Priority: %s, completion threshold: %d%%\n", g.Priority, g.CompletionThreshold)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&name, "name", "", "goal name (required)")
	cmd.Flags().StringVar(&desc, "description", "", "detailed description")
	cmd.Flags().StringVar(&category, "category", "", "goal category")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "target completion date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "progress percentage that auto-completes the goal")
	cmd.Flags().StringSliceVar(&carers, "carer", nil, "assigned carer user ID (repeatable)")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "creating user ID (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("created-by")
	return cmd
}

func newGoalListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		priority   string
		carerID    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			goals, err := goal.List(gormDB, goal.ListFilters{
				Status:   status,
				Priority: priority,
				CarerID:  carerID,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(goals) == 0 {
				fmt.Fprintln(out, "No goals found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPRIORITY\tPROGRESS")
			for _, g := range goals {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\n",
					g.ID, truncate(g.Name, 40), g.Status, g.Priority, g.ProgressPercentage)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&carerID, "carer", "", "filter by assigned carer")
	return cmd
}

func newGoalShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show goal details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			g, err := goal.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", g.ID)
			fmt.Fprintf(out, "Name:        %s\n", g.Name)
			fmt.Fprintf(out, "Status:      %s\n", g.Status)
			fmt.Fprintf(out, "Priority:    %s\n", g.Priority)
			fmt.Fprintf(out, "Progress:    %d%% (threshold %d%%)\n", g.ProgressPercentage, g.CompletionThreshold)
			if g.TargetDate != nil {
				fmt.Fprintf(out, "Target date: %s", g.TargetDate.Format("2006-01-02"))
				if g.IsOverdue(time.Now().UTC()) {
					fmt.Fprint(out, " (overdue)")
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Created:     %s\n", g.CreatedAt.Format("2006-01-02 15:04:05"))

			if g.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", g.Description)
			}

			if len(g.AssignedCarers) > 0 {
				fmt.Fprintln(out, "\nAssigned carers:")
				for _, c := range g.AssignedCarers {
					fmt.Fprintf(out, "  %s (%s)\n", c.User.Name, c.UserID)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}

func newGoalAssignCmd() *cobra.Command {
	var (
		configPath string
		carerID    string
	)

	cmd := &cobra.Command{
		Use:   "assign <goal-id>",
		Short: "Assign a carer to a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := goal.AssignCarer(gormDB, args[0], carerID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned carer %s to goal %s\n", carerID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&carerID, "carer", "", "carer user ID (required)")
	cmd.MarkFlagRequired("carer")
	return cmd
}

func newGoalRecomputeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "recompute <id>",
		Short: "Recompute goal progress from activity logs",
		Long:  "Recalculates weighted progress from completed activity logs and persists it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			g, err := goal.UpdateProgress(gormDB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Goal %s progress: %d%% (status %s)\n",
				g.ID, g.ProgressPercentage, g.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}

func newGoalSummaryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show goal counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			stats, err := goal.Summary(gormDB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STATUS\tCOUNT")
			for _, sc := range stats.ByStatus {
				fmt.Fprintf(w, "%s\t%d\n", sc.Status, sc.Count)
			}
			w.Flush()
			fmt.Fprintf(out, "\nTotal: %d, average progress: %.1f%%\n", stats.Total, stats.AverageProgress)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}
