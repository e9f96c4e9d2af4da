package monitoring

import "testing"

// TestAvailableMemoryMBNeverNegative verifies the probe degrades to zero
// instead of failing on platforms without /proc/meminfo
func TestAvailableMemoryMBNeverNegative(t *testing.T) {
	if mb := AvailableMemoryMB(); mb < 0 {
		t.Fatalf("AvailableMemoryMB() = %d, want >= 0", mb)
	}
}
