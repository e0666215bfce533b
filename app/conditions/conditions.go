// Package conditions gates the reconcile pass on host health. Job trackers
// usually run on shared login nodes, a status query on an overloaded node can
// be skipped and retried by the user later.
package conditions

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Config defines optional pre-flight limits. Nil fields are not checked.
type Config struct {
	LoadAvgBelow *float64 `yaml:"load_avg_below,omitempty" json:"load_avg_below,omitempty"`
	CPUBelow     *int     `yaml:"cpu_below,omitempty" json:"cpu_below,omitempty"`
	MemoryBelow  *int     `yaml:"memory_below,omitempty" json:"memory_below,omitempty"`
	Custom       string   `yaml:"custom,omitempty" json:"custom,omitempty"` // script, zero exit allows the pass
}

// Enabled reports whether any limit is configured.
func (c Config) Enabled() bool {
	return c.LoadAvgBelow != nil || c.CPUBelow != nil || c.MemoryBelow != nil || c.Custom != ""
}

// Check verifies all configured limits. Returns true when the pass may run,
// false with a reason otherwise.
func Check(c Config) (bool, string) {
	if c.LoadAvgBelow != nil {
		if ok, reason := checkLoadAvg(*c.LoadAvgBelow); !ok {
			return false, reason
		}
	}
	if c.CPUBelow != nil {
		if ok, reason := checkCPU(*c.CPUBelow); !ok {
			return false, reason
		}
	}
	if c.MemoryBelow != nil {
		if ok, reason := checkMemory(*c.MemoryBelow); !ok {
			return false, reason
		}
	}
	if c.Custom != "" {
		if ok, reason := checkCustom(c.Custom); !ok {
			return false, reason
		}
	}
	return true, ""
}

func checkLoadAvg(threshold float64) (bool, string) {
	loads, err := load.Avg()
	if err != nil {
		return false, fmt.Sprintf("failed to get load average: %v", err)
	}
	if loads.Load1 >= threshold {
		return false, fmt.Sprintf("load at %.2f, threshold %.2f", loads.Load1, threshold)
	}
	return true, ""
}

func checkCPU(threshold int) (bool, string) {
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		return false, fmt.Sprintf("failed to get CPU: %v", err)
	}
	if len(cpuPercent) == 0 {
		return false, "no CPU data available"
	}
	if current := int(cpuPercent[0]); current >= threshold {
		return false, fmt.Sprintf("CPU at %d%%, threshold %d%%", current, threshold)
	}
	return true, ""
}

func checkMemory(threshold int) (bool, string) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return false, fmt.Sprintf("failed to get memory: %v", err)
	}
	if current := int(v.UsedPercent); current >= threshold {
		return false, fmt.Sprintf("memory at %d%%, threshold %d%%", current, threshold)
	}
	return true, ""
}

func checkCustom(script string) (bool, string) {
	cmd := exec.Command("sh", "-c", script) //nolint:gosec // script comes from user config
	if err := cmd.Run(); err != nil {
		return false, fmt.Sprintf("custom check failed: %v", err)
	}
	return true, ""
}
