package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukepa21-lab/kajishift-app/internal/app"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

var (
	taskCategory string
	taskMinutes  int
	taskFreq     string
	taskAssignee string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage today's chores",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a chore for today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}

			draft := app.TaskDraft{
				Title: args[0],
				// Chores are planned day by day: new tasks land on today.
				Date: app.Today(),
			}

			if taskAssignee != "" {
				role, err := model.ParseRole(taskAssignee)
				if err != nil {
					return err
				}
				profile := a.ProfileByRole(role)
				if profile == nil {
					return fmt.Errorf("no profile with role %s", role)
				}
				draft.AssigneeID = profile.ID
			} else if profile := a.CurrentProfile(); profile != nil {
				draft.AssigneeID = profile.ID
			}

			if taskCategory != "" {
				category, err := model.ParseTaskCategory(taskCategory)
				if err != nil {
					return err
				}
				draft.Category = &category
			}
			if taskMinutes > 0 {
				minutes := taskMinutes
				draft.DurationMinutes = &minutes
			}
			if taskFreq != "" {
				freq, err := model.ParseTaskFrequency(taskFreq)
				if err != nil {
					return err
				}
				draft.Frequency = &freq
			}

			if err := a.AddTask(ctx, draft); err != nil {
				return err
			}
			fmt.Printf("Added %q for %s\n", draft.Title, draft.Date)
			return nil
		})
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's chores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}

			tasks := a.GetTasksForDate(app.Today())
			if len(tasks) == 0 {
				fmt.Println("タスクがありません")
				return nil
			}
			profiles := a.Profiles()
			for _, t := range tasks {
				printTask(t, profiles)
			}
			return nil
		})
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a chore's completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}
			return a.ToggleTask(ctx, args[0])
		})
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a chore",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}
			return a.DeleteTask(ctx, args[0])
		})
	},
}

func printTask(t model.Task, profiles []model.Profile) {
	check := " "
	if t.IsCompleted {
		check = "x"
	}
	line := fmt.Sprintf("[%s] %s", check, t.Title)
	for _, p := range profiles {
		if p.ID == t.AssigneeID {
			line += fmt.Sprintf("  (%s)", p.Name)
			break
		}
	}
	if t.Category != nil {
		line += fmt.Sprintf("  %s", *t.Category)
	}
	if t.DurationMinutes != nil {
		line += fmt.Sprintf("  %d分", *t.DurationMinutes)
	}
	if t.Frequency != nil {
		line += fmt.Sprintf("  %s", *t.Frequency)
	}
	fmt.Printf("%s  id=%s\n", line, t.ID)
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAssignee, "assignee", "", "assignee role (夫 or 妻, default: yourself)")
	taskAddCmd.Flags().StringVar(&taskCategory, "category", "", "category (料理, 洗濯, 掃除, 育児, 買い物, その他)")
	taskAddCmd.Flags().IntVar(&taskMinutes, "minutes", 0, "estimated duration in minutes")
	taskAddCmd.Flags().StringVar(&taskFreq, "frequency", "", "recurrence label (毎日, 週2回, 週3回, 隔週, 週1回)")
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
