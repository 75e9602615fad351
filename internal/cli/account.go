package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/proplatform/internal/auth"
	"github.com/mcoot/proplatform/internal/config"
	"github.com/mcoot/proplatform/internal/identity"
	"github.com/mcoot/proplatform/internal/model"
)

func newRegisterCmd(st *state) *cobra.Command {
	var in identity.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := st.app.Identity.Register(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			return st.saveAndPrint(cmd.Context(), cred, "Registered", in.Email)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password, at least 6 characters")

	return cmd
}

func newLoginCmd(st *state) *cobra.Command {
	var in identity.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := st.app.Identity.Login(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			return st.saveAndPrint(cmd.Context(), cred, "Signed in", in.Email)
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")

	return cmd
}

// saveAndPrint persists a fresh credential; the identity client never does
func (st *state) saveAndPrint(ctx context.Context, cred model.Credential, action, email string) error {
	if err := st.app.Sessions.Save(ctx, cred.Token); err != nil {
		return err
	}
	st.out.Print(AuthResult{
		Action: action,
		Email:  email,
		Slot:   st.app.Sessions.Slot(),
	})
	return nil
}

func newLogoutCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.app.Guard.Logout(cmd.Context()); err != nil {
				return err
			}
			st.out.PrintMessage("Signed out")
			return nil
		},
	}
}

func newStatusCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		Long: `Show whether a session is stored.

Token details are read without verifying the signature and are shown for
information only. A stored token counts as signed in even when it has expired.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := st.app.Guard.State(cmd.Context())
			if err != nil {
				return err
			}

			result := StatusResult{
				State:   current.String(),
				Slot:    st.app.Sessions.Slot(),
				Backend: st.cfg.BackendOr(config.BackendFile),
			}

			if current == auth.Authenticated {
				token, err := st.app.Sessions.Read(cmd.Context())
				if err != nil {
					return err
				}
				if info, ok := auth.Inspect(token); ok {
					result.Token = tokenInfo(info, time.Now())
				}
			}

			st.out.Print(result)
			return nil
		},
	}
}

func tokenInfo(info auth.TokenInfo, now time.Time) *TokenInfo {
	out := &TokenInfo{
		Subject: info.Subject,
		Email:   info.Email,
		Issuer:  info.Issuer,
		Expired: info.Expired(now),
	}
	if !info.IssuedAt.IsZero() {
		t := info.IssuedAt.UTC()
		out.IssuedAt = &t
	}
	if !info.ExpiresAt.IsZero() {
		t := info.ExpiresAt.UTC()
		out.ExpiresAt = &t
	}
	return out
}
