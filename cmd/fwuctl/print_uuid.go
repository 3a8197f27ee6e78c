package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
)

var printUUIDCmd = &cobra.Command{
	Use:   "print-uuid <canonical-uuid>",
	Short: "Round-trip a canonical UUID string through its wire octet form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := uuidutil.Parse(args[0])
		if err != nil {
			return fmt.Errorf("fwuctl: %w", err)
		}
		fmt.Printf("canonical: %s\n", u.String())
		fmt.Printf("octets:    %x\n", [16]byte(u))
		return nil
	},
}
