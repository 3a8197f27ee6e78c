package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fwu/internal/cliapp"
	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
)

var printImageDirCmd = &cobra.Command{
	Use:   "print-image-dir",
	Short: "Print the agent's FWU Image Directory object",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeployment()
		if err != nil {
			return err
		}
		handle, status := d.Agent.Open(uuidutil.MustParse(proto.DirectoryCanonicalUUID))
		if status != proto.StatusSuccess {
			return fmt.Errorf("fwuctl: open image directory: %s", status)
		}
		buf := make([]byte, 1<<20)
		n, _, status := d.Agent.ReadStream(handle, buf)
		if status != proto.StatusSuccess {
			return fmt.Errorf("fwuctl: read image directory: %s", status)
		}
		if _, _, status := d.Agent.Commit(handle, true); status != proto.StatusSuccess {
			return fmt.Errorf("fwuctl: close image directory stream: %s", status)
		}
		out, err := cliapp.FormatImageDirectory(buf[:n])
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}
