package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-dash-client/internal/models"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.manager.Login(cmd.Context(), models.LoginRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", user.FullName(), user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.manager.Bootstrap(cmd.Context())
			a.manager.Logout(cmd.Context())
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	req := models.RegisterRequest{}
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a dashboard account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			req.Role = models.UserRole(role)
			user, err := a.manager.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s as %s\n", user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&role, "role", "teacher", "role: admin, teacher, student or parent")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Address, "address", "", "postal address")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Restore the stored session and show who is signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.manager.Bootstrap(cmd.Context())
			snap := a.manager.Snapshot()

			if !snap.IsAuthenticated() {
				fmt.Println("Not signed in.")
				return nil
			}

			fmt.Printf("User:  %s <%s>\n", snap.User.FullName(), snap.User.Email)
			fmt.Printf("Role:  %s\n", snap.User.Role)
			fmt.Printf("State: %s\n", snap.State)

			if claims, err := a.manager.TokenInfo(); err == nil {
				if remaining, ok := claims.ExpiresIn(time.Now()); ok {
					if remaining > 0 {
						fmt.Printf("Token: expires in %s\n", remaining.Round(time.Minute))
					} else {
						fmt.Printf("Token: expired %s ago (server not yet consulted)\n", (-remaining).Round(time.Minute))
					}
				}
			}
			return nil
		},
	}
}
