package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/proplatform/internal/config"
)

func newHealthCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the session backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := st.app.Sessions.Read(cmd.Context()); err != nil {
				return fmt.Errorf("session backend unavailable: %w", err)
			}

			st.out.Print(HealthResult{
				Status:  "ok",
				Backend: st.cfg.BackendOr(config.BackendFile),
				Slot:    st.app.Sessions.Slot(),
			})
			return nil
		},
	}
}
