// Package units formats metric values for human consumption.
package units

import "fmt"

// FormatRate renders a bytes-per-second value using binary steps
// (B/s, KB/s, MB/s, GB/s, TB/s) with two decimals.
func FormatRate(bytesPerSec float64) string {
	for _, unit := range []string{"B/s", "KB/s", "MB/s", "GB/s"} {
		if bytesPerSec < 1024.0 {
			return fmt.Sprintf("%.2f %s", bytesPerSec, unit)
		}
		bytesPerSec /= 1024.0
	}
	return fmt.Sprintf("%.2f TB/s", bytesPerSec)
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatOps renders an operations-per-second value without decimals.
func FormatOps(v float64) string {
	return fmt.Sprintf("%.0f/s", v)
}
