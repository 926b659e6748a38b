// Package commands implements the telnorm CLI, which normalizes tel: link
// candidates offline with the same rules as the HTTP service.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"tel_handoff_backend/platform/phone"
)

var (
	callingCode string
	normalizer  = phone.NewNormalizer(nil)
)

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Flags are bound to package state, so
// build a fresh tree per invocation.
func NewRootCmd() *cobra.Command {
	callingCode = ""

	root := &cobra.Command{
		Use:          "telnorm",
		Short:        "Normalize tel: links into WhatsApp-ready E.164 numbers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if callingCode == "" {
				return nil
			}
			code, ok := phone.CleanCallingCode(callingCode)
			if !ok {
				return fmt.Errorf("invalid --calling-code %q: want 1-3 digits, optionally prefixed with +", callingCode)
			}
			callingCode = code
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&callingCode, "calling-code", "c", "", "country calling code for numbers without a + prefix (e.g. 31)")

	root.AddCommand(normalizeCmd(), linkCmd())
	return root
}
