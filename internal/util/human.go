package util

import "fmt"

// Human formats a byte count with binary units.
func Human(n int64) string {
	if n < 1<<10 {
		return fmt.Sprintf("%d B", n)
	}

	v := float64(n)
	for _, unit := range []string{"KB", "MB", "GB"} {
		v /= 1 << 10
		if v < 1<<10 || unit == "GB" {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
	}
	return ""
}
