package stats

import "github.com/shirou/gopsutil/v4/mem"

// memoryUsedPercent reads host-level memory utilisation. The orchestrator
// sizes fleets by host, not by process, so host-level pressure is the number
// that predicts an eviction.
func memoryUsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
