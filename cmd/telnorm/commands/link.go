package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tel_handoff_backend/internal/handoff/service"
)

const defaultWhatsAppBaseURL = "https://wa.me"

func linkCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "link <number>",
		Short: "Print the WhatsApp link for a tel: number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := normalizer.Normalize(callingCode, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), service.WhatsAppURL(baseURL, number))
			return err
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", defaultWhatsAppBaseURL, "WhatsApp deep link base URL")
	return cmd
}
