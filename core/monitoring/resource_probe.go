package monitoring

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// AvailableMemoryMB reports the system's currently available memory in
// megabytes. It is an observability signal only and never gates admission;
// the scheduler's fixed concurrency limit is the actual memory guard.
// Returns 0 on platforms without /proc/meminfo.
func AvailableMemoryMB() int64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}
