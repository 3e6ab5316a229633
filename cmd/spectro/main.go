// Command spectro estimates the wavelengths of the lines in a photographed
// diffraction pattern.
//
// Usage:
//
//	spectro analyze [flags] IMAGE.jpg
//	spectro pitch --zero ROW --ref ROW --distance-mm MM
//
// Examples:
//
//	spectro analyze pattern.jpg
//	spectro analyze --min-height 20 --min-distance 15 --smooth 3 pattern.jpg
//	spectro analyze --ref-row 712 --ref-distance-mm 4.2 --svg spectrum.svg pattern.jpg
//	spectro analyze --pixel-pitch-mm 0.0014 --csv-dir out pattern.jpg
//	spectro pitch --zero 512 --ref 712 --distance-mm 4.2
package main

import (
	"os"

	"github.com/cwbudde/algo-spectro/cmd/spectro/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
