package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-dash-client/internal/models"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in profile",
	}
	cmd.AddCommand(newProfileUpdateCmd())
	return cmd
}

func newProfileUpdateCmd() *cobra.Command {
	req := models.UpdateProfileRequest{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.manager.Bootstrap(cmd.Context())

			user, err := a.manager.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Profile saved for %s\n", user.FullName())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Address, "address", "", "postal address")
	cmd.Flags().StringVar(&req.ProfilePicture, "picture", "", "profile picture URL")

	return cmd
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password reset flows",
	}

	var email string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Send a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.manager.ForgotPassword(cmd.Context(), email)
		},
	}
	forgot.Flags().StringVar(&email, "email", "", "account email")
	_ = forgot.MarkFlagRequired("email")

	var token, newPassword string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.manager.ResetPassword(cmd.Context(), token, newPassword)
		},
	}
	reset.Flags().StringVar(&token, "token", "", "reset token from the email")
	reset.Flags().StringVar(&newPassword, "new-password", "", "new password")
	_ = reset.MarkFlagRequired("token")
	_ = reset.MarkFlagRequired("new-password")

	cmd.AddCommand(forgot, reset)
	return cmd
}
