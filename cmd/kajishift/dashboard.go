package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukepa21-lab/kajishift-app/internal/app"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Today's shift and both partners' chores at a glance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}

			today := app.Today()
			if profile := a.CurrentProfile(); profile != nil {
				fmt.Printf("おかえりなさい、%sさん  (%s)\n\n", profile.Name, today)
			}

			fmt.Print("今日のシフト: ")
			if shift := a.GetShift(a.Identity().ID, today); shift != nil {
				if info := model.InfoForShiftKind(shift.Kind); info != nil {
					fmt.Printf("%s %s\n", info.Icon, info.Label)
				} else {
					fmt.Println(shift.Kind)
				}
			} else {
				fmt.Println("未登録")
			}
			fmt.Println()

			tasks := a.Tasks()
			profiles := a.Profiles()
			for _, role := range []model.Role{model.RoleHusband, model.RoleWife} {
				profile := app.FindProfileByRole(profiles, role)
				if profile == nil {
					continue
				}
				done, total := app.CompletionSummary(tasks, today, profile.ID)
				fmt.Printf("%s (%d/%d)\n", profile.Name, done, total)
				for _, t := range app.TasksForAssignee(tasks, today, profile.ID) {
					printTask(t, profiles)
				}
				fmt.Println()
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
