package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/proplatform/internal/identity"
)

func newProfileCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the signed-in account's profile",
		// Consult the guard before any profile call, so an anonymous user gets a
		// clear message and no request is made
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			ok, err := st.app.Guard.IsAuthenticated(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return &cliError{msg: errNotSignedIn.Error(), err: errNotSignedIn}
			}
			return nil
		},
	}

	cmd.AddCommand(newProfileShowCmd(st))
	cmd.AddCommand(newProfileUpdateCmd(st))

	return cmd
}

func newProfileShowCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := st.app.Identity.FetchProfile(cmd.Context())
			if err != nil {
				return userError(err)
			}

			result := ProfileResult{
				DisplayName: profile.DisplayName,
				Email:       profile.Email,
				PhotoURL:    profile.PhotoURL,
			}
			if !profile.CreatedAt.IsZero() {
				created := profile.CreatedAt
				result.CreatedAt = &created
			}

			st.out.Print(result)
			return nil
		},
	}
}

func newProfileUpdateCmd(st *state) *cobra.Command {
	var in identity.UpdateProfileInput

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set the display name and photo URL",
		Long: `Set the display name and photo URL.

Both values are replaced. Leaving --photo-url empty removes the photo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.app.Identity.UpdateProfile(cmd.Context(), in); err != nil {
				return userError(err)
			}
			st.out.PrintMessage("Profile updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&in.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&in.PhotoURL, "photo-url", "", "Photo URL (empty removes the photo)")

	return cmd
}
