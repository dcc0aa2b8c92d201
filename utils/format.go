package utils

import "fmt"

// FormatBytes converts a byte count into a human-readable string with
// binary units (1 KB = 1024 bytes).
func FormatBytes(bytes int64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.2f %cB",
		float64(bytes)/float64(div),
		"KMGTPE"[exp])
}
