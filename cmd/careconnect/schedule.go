package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tavonga/careconnect/internal/models"
	"github.com/tavonga/careconnect/internal/schedule"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule management commands",
	}

	cmd.AddCommand(newScheduleCreateCmd())
	cmd.AddCommand(newScheduleListCmd())
	cmd.AddCommand(newScheduleShowCmd())
	cmd.AddCommand(newScheduleTodayCmd())
	cmd.AddCommand(newScheduleStartCmd())
	cmd.AddCommand(newScheduleCompleteCmd())
	cmd.AddCommand(newScheduleCancelCmd())
	cmd.AddCommand(newScheduleRescheduleCmd())
	cmd.AddCommand(newScheduleStatsCmd())
	return cmd
}

func newScheduleCreateCmd() *cobra.Command {
	var (
		configPath    string
		activityID    string
		userID        string
		createdBy     string
		dateStr       string
		timeStr       string
		duration      int
		priority      string
		recurrence    string
		recurrenceEnd string
		notes         string
		location      string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule an activity",
		Long: `Schedules an activity for a user at a date and time. Creation fails when
the slot overlaps another active schedule for the same user on the same day.
With --recurrence, future occurrences are created through --recurrence-end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD")
			}

			opts := schedule.CreateOpts{
				ActivityID:     activityID,
				AssignedUserID: userID,
				CreatedByID:    createdBy,
				ScheduledDate:  date,
				ScheduledTime:  timeStr,
				Priority:       priority,
				RecurrenceType: recurrence,
				Notes:          notes,
				Location:       location,
			}
			if cmd.Flags().Changed("duration") {
				opts.EstimatedDuration = &duration
			}
			if recurrenceEnd != "" {
				end, err := time.Parse("2006-01-02", recurrenceEnd)
				if err != nil {
					return fmt.Errorf("recurrence-end must be YYYY-MM-DD")
				}
				opts.RecurrenceEndDate = &end
			}

			s, err := schedule.Create(gormDB, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created schedule %s\n", s.ID)
			fmt.Fprintf(out, "%s at %s for user %s\n",
				s.ScheduledDate.Format("2006-01-02"), s.ScheduledTime, s.AssignedUserID)
			if s.RecurrenceType != "none" {
				fmt.Fprintf(out, "Recurs %s through %s\n",
					s.RecurrenceType, s.RecurrenceEndDate.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&activityID, "activity", "", "activity ID (required)")
	cmd.Flags().StringVar(&userID, "user", "", "assigned user ID (required)")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "creating user ID (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "scheduled date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&timeStr, "time", "", "scheduled time HH:MM (required)")
	cmd.Flags().IntVar(&duration, "duration", 0, "estimated duration in minutes")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high, urgent)")
	cmd.Flags().StringVar(&recurrence, "recurrence", "", "recurrence (daily, weekly, monthly)")
	cmd.Flags().StringVar(&recurrenceEnd, "recurrence-end", "", "last recurrence date YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "schedule notes")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.MarkFlagRequired("activity")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("created-by")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("time")
	return cmd
}

func newScheduleListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		userID     string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			filters := schedule.ListFilters{
				Status:         status,
				AssignedUserID: userID,
			}
			if from != "" {
				d, err := time.Parse("2006-01-02", from)
				if err != nil {
					return fmt.Errorf("from must be YYYY-MM-DD")
				}
				filters.DateFrom = &d
			}
			if to != "" {
				d, err := time.Parse("2006-01-02", to)
				if err != nil {
					return fmt.Errorf("to must be YYYY-MM-DD")
				}
				filters.DateTo = &d
			}

			schedules, err := schedule.List(gormDB, filters)
			if err != nil {
				return err
			}
			printScheduleTable(cmd, schedules)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&userID, "user", "", "filter by assigned user")
	cmd.Flags().StringVar(&from, "from", "", "earliest date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "latest date YYYY-MM-DD")
	return cmd
}

func printScheduleTable(cmd *cobra.Command, schedules []models.Schedule) {
	out := cmd.OutOrStdout()
	if len(schedules) == 0 {
		fmt.Fprintln(out, "No schedules found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tACTIVITY\tUSER\tSTATUS")
	for _, s := range schedules {
		name := s.ActivityID
		if s.Activity.Name != "" {
			name = truncate(s.Activity.Name, 30)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.ScheduledDate.Format("2006-01-02"), s.ScheduledTime,
			name, s.AssignedUserID, s.Status)
	}
	w.Flush()
}

func newScheduleShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			s, err := schedule.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", s.ID)
			if s.Activity.Name != "" {
				fmt.Fprintf(out, "Activity:    %s (%s)\n", s.Activity.Name, s.ActivityID)
			} else {
				fmt.Fprintf(out, "Activity:    %s\n", s.ActivityID)
			}
			fmt.Fprintf(out, "User:        %s\n", s.AssignedUserID)
			fmt.Fprintf(out, "When:        %s %s\n", s.ScheduledDate.Format("2006-01-02"), s.ScheduledTime)
			fmt.Fprintf(out, "Status:      %s\n", s.Status)
			fmt.Fprintf(out, "Priority:    %s\n", s.Priority)
			if s.EstimatedDuration != nil {
				fmt.Fprintf(out, "Duration:    %d min\n", *s.EstimatedDuration)
			}
			if s.RecurrenceType != "none" {
				fmt.Fprintf(out, "Recurrence:  %s through %s\n",
					s.RecurrenceType, s.RecurrenceEndDate.Format("2006-01-02"))
			}
			if s.ParentScheduleID != nil {
				fmt.Fprintf(out, "Parent:      %s\n", *s.ParentScheduleID)
			}
			if s.Location != "" {
				fmt.Fprintf(out, "Location:    %s\n", s.Location)
			}
			if s.Notes != "" {
				fmt.Fprintf(out, "\nNotes:\n%s\n", s.Notes)
			}
			if s.CompletionNotes != "" {
				fmt.Fprintf(out, "\nCompletion notes:\n%s\n", s.CompletionNotes)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}

func newScheduleTodayCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List today's schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			schedules, err := schedule.Today(gormDB, userID)
			if err != nil {
				return err
			}
			printScheduleTable(cmd, schedules)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&userID, "user", "", "filter by assigned user")
	return cmd
}

func newScheduleStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start a scheduled activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			s, err := schedule.Start(gormDB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started schedule %s at %s\n",
				s.ID, s.ActualStartTime.Format("15:04:05"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	return cmd
}

func newScheduleCompleteCmd() *cobra.Command {
	var (
		configPath string
		percentage int
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a scheduled activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := schedule.CompleteOpts{Notes: notes}
			if cmd.Flags().Changed("percentage") {
				opts.CompletionPercentage = &percentage
			}

			s, err := schedule.Complete(gormDB, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed schedule %s (%d%%)\n",
				s.ID, s.CompletionPercentage)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().IntVar(&percentage, "percentage", 100, "completion percentage (0-100)")
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes")
	return cmd
}

func newScheduleCancelCmd() *cobra.Command {
	var (
		configPath string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a scheduled activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			s, err := schedule.Cancel(gormDB, args[0], reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled schedule %s\n", s.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	return cmd
}

func newScheduleRescheduleCmd() *cobra.Command {
	var (
		configPath string
		dateStr    string
		timeStr    string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Move a schedule to a new slot",
		Long:  "Marks the schedule rescheduled and creates a new one at the given date and time.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			date, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD")
			}

			old, successor, err := schedule.Reschedule(gormDB, args[0], schedule.RescheduleOpts{
				NewDate: date,
				NewTime: timeStr,
				Reason:  reason,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rescheduled %s -> %s\n", old.ID, successor.ID)
			fmt.Fprintf(out, "New slot: %s at %s\n",
				successor.ScheduledDate.Format("2006-01-02"), successor.ScheduledTime)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&dateStr, "date", "", "new date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&timeStr, "time", "", "new time HH:MM (required)")
	cmd.Flags().StringVar(&reason, "reason", "", "reschedule reason")
	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("time")
	return cmd
}

func newScheduleStatsCmd() *cobra.Command {
	var (
		configPath string
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show schedule statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			stats, err := schedule.Summary(gormDB, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:           %d\n", stats.Total)
			fmt.Fprintf(out, "Scheduled today: %d\n", stats.ScheduledToday)
			fmt.Fprintf(out, "In progress:     %d\n", stats.InProgressToday)
			fmt.Fprintf(out, "Completed today: %d\n", stats.CompletedToday)
			fmt.Fprintf(out, "Overdue:         %d\n", stats.Overdue)
			fmt.Fprintf(out, "Upcoming week:   %d\n", stats.UpcomingWeek)
			fmt.Fprintf(out, "Completion rate: %.1f%%\n", stats.CompletionRate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "careconnect.yaml", "path to CareConnect config file")
	cmd.Flags().StringVar(&userID, "user", "", "filter by assigned user")
	return cmd
}
