package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-spectro/grating"
)

func pitchCmd() *cobra.Command {
	var (
		zero, ref  int
		distanceMM float64
	)

	cmd := &cobra.Command{
		Use:   "pitch",
		Short: "Compute the pixel pitch from two rows a known distance apart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pitch, err := grating.PixelPitch(zero, ref, distanceMM)
			if err != nil {
				return err
			}
			logger.Debug("pixel pitch",
				zap.Int("zero_order_row", zero),
				zap.Int("reference_row", ref),
				zap.Float64("pixel_pitch_mm", pitch))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.6g mm/row\n", pitch)
			return err
		},
	}

	cmd.Flags().IntVar(&zero, "zero", 0, "zero-order row")
	cmd.Flags().IntVar(&ref, "ref", 0, "reference row")
	cmd.Flags().Float64Var(&distanceMM, "distance-mm", 0, "sensor distance between the rows in mm")
	_ = cmd.MarkFlagRequired("zero")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("distance-mm")

	return cmd
}
