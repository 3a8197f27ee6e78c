package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fwu/internal/proto"
	"github.com/deploymenttheory/go-fwu/internal/uuidutil"
)

var (
	updateImageUUID     string
	updateImagePath     string
	updateImageAccepted bool
)

var updateImageCmd = &cobra.Command{
	Use:   "update-image",
	Short: "Stage a single image install and end staging",
	Long: `update-image drives begin_staging -> open -> write_stream -> commit ->
end_staging against the configured deployment for a single image, the
same operation sequence a real FWU client issues over the RPC transport.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		imgUUID, err := uuidutil.Parse(updateImageUUID)
		if err != nil {
			return fmt.Errorf("fwuctl: %w", err)
		}
		f, err := os.Open(updateImagePath)
		if err != nil {
			return err
		}
		defer f.Close()

		d, err := buildDeployment()
		if err != nil {
			return err
		}

		if status := d.Agent.BeginStaging(); status != proto.StatusSuccess {
			return fmt.Errorf("fwuctl: begin_staging: %s", status)
		}

		handle, status := d.Agent.Open(imgUUID)
		if status != proto.StatusSuccess {
			d.Agent.CancelStaging()
			return fmt.Errorf("fwuctl: open: %s", status)
		}

		buf := make([]byte, 64*1024)
		for {
			n, readErr := f.Read(buf)
			if n > 0 {
				if _, status := d.Agent.WriteStream(handle, buf[:n]); status != proto.StatusSuccess {
					d.Agent.Commit(handle, false)
					d.Agent.CancelStaging()
					return fmt.Errorf("fwuctl: write_stream: %s", status)
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				d.Agent.Commit(handle, false)
				d.Agent.CancelStaging()
				return readErr
			}
		}

		if _, _, status := d.Agent.Commit(handle, updateImageAccepted); status != proto.StatusSuccess {
			d.Agent.CancelStaging()
			return fmt.Errorf("fwuctl: commit: %s", status)
		}

		if status := d.Agent.EndStaging(); status != proto.StatusSuccess {
			return fmt.Errorf("fwuctl: end_staging: %s (cancel_staging required before retrying)", status)
		}
		fmt.Println("update staged and activated")
		return nil
	},
}

func init() {
	updateImageCmd.Flags().StringVar(&updateImageUUID, "image-uuid", "", "canonical image type uuid to install")
	updateImageCmd.Flags().StringVar(&updateImagePath, "file", "", "path to the raw image file")
	updateImageCmd.Flags().BoolVar(&updateImageAccepted, "accepted", false, "mark the image accepted on commit instead of requiring accept_image")
	updateImageCmd.MarkFlagRequired("image-uuid")
	updateImageCmd.MarkFlagRequired("file")
}
