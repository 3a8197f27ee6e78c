package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fwu/internal/cliapp"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
)

var printMetadataCmd = &cobra.Command{
	Use:   "print-metadata",
	Short: "Print the agent's current FWU metadata object",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeployment()
		if err != nil {
			return err
		}
		data, handled, status := d.Store.Export(uuidutil.MustParse(proto.MetadataCanonicalUUID))
		if !handled || status != proto.StatusSuccess {
			return fmt.Errorf("fwuctl: metadata not available: %s", status)
		}
		out, err := cliapp.FormatMetadata(data)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}
