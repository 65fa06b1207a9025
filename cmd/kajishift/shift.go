package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukepa21-lab/kajishift-app/internal/app"
	"github.com/yukepa21-lab/kajishift-app/internal/model"
)

var shiftDate string

var shiftCmd = &cobra.Command{
	Use:   "shift",
	Short: "Show and register work shifts",
}

var shiftSetCmd = &cobra.Command{
	Use:   "set <kind>",
	Short: "Register a shift for a date (default: today)",
	Long:  "Kinds: 日勤, 夜勤, 明け, 休日. Setting a date that already has a shift replaces it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseShiftKind(args[0])
		if err != nil {
			return err
		}
		date := shiftDate
		if date == "" {
			date = app.Today()
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
		}

		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}
			if err := a.UpsertShift(ctx, a.Identity().ID, date, kind); err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", date, kind)
			return nil
		})
	},
}

var shiftWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show this week's shifts for both partners",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}

			shifts := a.Shifts()
			profiles := a.Profiles()
			for _, date := range app.WeekDates(time.Now()) {
				marker := "  "
				if date == app.Today() {
					marker = "* "
				}
				fmt.Printf("%s%s", marker, date)
				for _, p := range profiles {
					label := "未登録"
					if s := app.FindShift(shifts, p.UserID, date); s != nil {
						label = string(s.Kind)
						if info := model.InfoForShiftKind(s.Kind); info != nil {
							label = info.Icon + " " + info.Label
						}
					}
					fmt.Printf("  %s: %s", p.Name, label)
				}
				fmt.Println()
			}
			return nil
		})
	},
}

func init() {
	shiftSetCmd.Flags().StringVar(&shiftDate, "date", "", "target date (YYYY-MM-DD)")
	shiftCmd.AddCommand(shiftSetCmd, shiftWeekCmd)
	rootCmd.AddCommand(shiftCmd)
}
