package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yukepa21-lab/kajishift-app/internal/app"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			email, password, err := promptCredentials()
			if err != nil {
				return err
			}
			if err := a.Login(ctx, email, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if profile := a.CurrentProfile(); profile != nil {
				fmt.Printf("ようこそ、%sさん\n", profile.Name)
			} else {
				fmt.Println("Signed in.")
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := a.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireSignIn(a); err != nil {
				return err
			}
			id := a.Identity()
			fmt.Printf("%s\n", id.Email)
			if profile := a.CurrentProfile(); profile != nil {
				fmt.Printf("%s (%s)\n", profile.Name, profile.Role)
			}
			return nil
		})
	},
}

func promptCredentials() (email, password string, err error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read email: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return email, string(raw), nil
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
