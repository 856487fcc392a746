package cmd

import (
	"fmt"
	"time"

	"github.com/aprilgo/apriltag/internal/imageio"
	"github.com/spf13/cobra"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark [image...]",
	Short: "Repeatedly detect tags in images and report timing",
	Long: `Run the detection pipeline against one or more images multiple
times and report per-image detection counts, a Hamming histogram, and
wall-clock timing, the way the reference demo's run summary does.

Examples:
  apriltag benchmark frame.png --iterations 20`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		det, err := buildDetectorFromFlags(cmd)
		if err != nil {
			return err
		}
		defer det.Close()

		iterations, _ := cmd.Flags().GetInt("iterations")
		if iterations < 1 {
			iterations = 1
		}

		for _, path := range args {
			img, err := imageio.ReadGray8(path)
			if err != nil {
				return fmt.Errorf("apriltag benchmark: %s: %w", path, err)
			}

			hist := make(map[int]int)
			var total time.Duration
			var detCount int
			for i := 0; i < iterations; i++ {
				start := time.Now()
				dets, err := det.Detect(img)
				total += time.Since(start)
				if err != nil {
					img.Release()
					return fmt.Errorf("apriltag benchmark: %s: %w", path, err)
				}
				if i == 0 {
					detCount = len(dets)
					for _, d := range dets {
						hist[d.Hamming]++
					}
				}
			}
			img.Release()

			avg := total / time.Duration(iterations)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d detections, hamming histogram %v, %d iterations, avg %s, %.1f detections/sec\n",
				path, detCount, hist, iterations, avg, float64(time.Second)/float64(avg))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)
	addDetectorFlags(benchmarkCmd)
	benchmarkCmd.Flags().Int("iterations", 10, "number of detection passes per image")
}
