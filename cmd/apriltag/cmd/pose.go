package cmd

import (
	"fmt"

	"github.com/aprilgo/apriltag/internal/imageio"
	"github.com/aprilgo/apriltag/internal/pose"
	"github.com/spf13/cobra"
)

var poseCmd = &cobra.Command{
	Use:   "pose [image...]",
	Short: "Detect AprilTags and solve camera-relative pose",
	Long: `Detect AprilTags in one or more image files and additionally solve
each tag's camera-relative rotation and translation, given the camera's
pinhole intrinsics and the tag's physical edge length.

Examples:
  apriltag pose frame.png --tag-size 0.165 --fx 600 --fy 600 --cx 320 --cy 240`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		det, err := buildDetectorFromFlags(cmd)
		if err != nil {
			return err
		}
		defer det.Close()

		tagSize, _ := cmd.Flags().GetFloat64("tag-size")
		intr := pose.Intrinsics{}
		intr.Fx, _ = cmd.Flags().GetFloat64("fx")
		intr.Fy, _ = cmd.Flags().GetFloat64("fy")
		intr.Cx, _ = cmd.Flags().GetFloat64("cx")
		intr.Cy, _ = cmd.Flags().GetFloat64("cy")
		if tagSize <= 0 {
			return fmt.Errorf("apriltag pose: --tag-size must be positive")
		}

		for _, path := range args {
			img, err := imageio.ReadGray8(path)
			if err != nil {
				return fmt.Errorf("apriltag pose: %s: %w", path, err)
			}

			dets, err := det.Detect(img)
			img.Release()
			if err != nil {
				return fmt.Errorf("apriltag pose: %s: %w", path, err)
			}

			for _, d := range dets {
				result := det.SolvePose(d, intr, tagSize)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: id=%d converged=%v iterations=%d transform=%v\n",
					path, d.ID, result.Converged, result.Iterations, result.Transform)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poseCmd)
	addDetectorFlags(poseCmd)
	poseCmd.Flags().Float64("tag-size", 0, "physical tag edge length in world units (required)")
	poseCmd.Flags().Float64("fx", 0, "camera focal length x (pixels)")
	poseCmd.Flags().Float64("fy", 0, "camera focal length y (pixels)")
	poseCmd.Flags().Float64("cx", 0, "camera principal point x (pixels)")
	poseCmd.Flags().Float64("cy", 0, "camera principal point y (pixels)")
	poseCmd.Flags().Bool("refine-pose", false, "apply Gauss-Newton reprojection refinement to the seeded pose")
}
