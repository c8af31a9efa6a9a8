package sysinfo

import (
	"context"
	"encoding/json"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// GPU describes one discovered video adapter.
type GPU struct {
	Name        string `json:"name"`
	MemoryBytes uint64 `json:"memory_bytes,omitempty"`
}

// commandTimeout bounds every external probe; a hung vendor tool must
// not stall /system-info.
const commandTimeout = 3 * time.Second

// DiscoverGPUs probes the platform's tooling for video adapters.
// Missing tools and parse failures yield an empty list.
func DiscoverGPUs(ctx context.Context) []GPU {
	switch runtime.GOOS {
	case "windows":
		return discoverWindowsGPUs(ctx)
	case "darwin":
		return discoverMacGPUs(ctx)
	case "linux":
		return nvidiaSMIGPUs(ctx)
	default:
		return nil
	}
}

// runCommand executes a probe with the shared timeout and returns its
// trimmed stdout, or "" on any failure.
func runCommand(ctx context.Context, name string, args ...string) string {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	output, err := exec.CommandContext(cmdCtx, name, args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// nvidiaSMIGPUs queries nvidia-smi for adapter names and total memory.
func nvidiaSMIGPUs(ctx context.Context) []GPU {
	output := runCommand(ctx, "nvidia-smi",
		"--query-gpu=name,memory.total", "--format=csv,noheader")
	if output == "" {
		return nil
	}

	var gpus []GPU
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, ",")
		gpu := GPU{Name: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			gpu.MemoryBytes = parseMemoryToBytes(parts[1])
		}
		gpus = append(gpus, gpu)
	}
	return gpus
}

// discoverMacGPUs reads system_profiler's display inventory. macOS does
// not report dedicated memory for Apple silicon, so MemoryBytes stays 0.
func discoverMacGPUs(ctx context.Context) []GPU {
	output := runCommand(ctx, "system_profiler", "SPDisplaysDataType", "-json")
	if output == "" {
		return nil
	}

	var payload struct {
		Displays []struct {
			Model string `json:"sppci_model"`
		} `json:"SPDisplaysDataType"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return nil
	}

	var gpus []GPU
	for _, display := range payload.Displays {
		gpus = append(gpus, GPU{Name: display.Model})
	}
	return gpus
}

// discoverWindowsGPUs merges the CIM video controller inventory with the
// dedicated-memory WMI class and nvidia-smi, preferring the largest
// reported memory per adapter.
func discoverWindowsGPUs(ctx context.Context) []GPU {
	gpus := windowsVideoControllers(ctx)
	gpus = mergeGPUMemory(gpus, windowsDedicatedMemory(ctx))
	gpus = mergeGPUMemory(gpus, nvidiaSMIGPUs(ctx))
	return gpus
}

func windowsVideoControllers(ctx context.Context) []GPU {
	output := runCommand(ctx, "powershell", "-NoProfile", "-Command",
		"Get-CimInstance Win32_VideoController | Select-Object Name, AdapterRAM | ConvertTo-Json -Compress")
	return parseWindowsAdapterJSON(output, "AdapterRAM")
}

func windowsDedicatedMemory(ctx context.Context) []GPU {
	output := runCommand(ctx, "powershell", "-NoProfile", "-Command",
		"Get-CimInstance -Namespace root\\wmi -ClassName MSFT_VideoAdapter | Select-Object Name, DedicatedVideoMemory | ConvertTo-Json -Compress")
	return parseWindowsAdapterJSON(output, "DedicatedVideoMemory")
}

// parseWindowsAdapterJSON handles ConvertTo-Json emitting either one
// object or an array of objects.
func parseWindowsAdapterJSON(output, memoryKey string) []GPU {
	if output == "" {
		return nil
	}

	var items []map[string]any
	if strings.HasPrefix(output, "[") {
		if err := json.Unmarshal([]byte(output), &items); err != nil {
			return nil
		}
	} else {
		var single map[string]any
		if err := json.Unmarshal([]byte(output), &single); err != nil {
			return nil
		}
		items = []map[string]any{single}
	}

	var gpus []GPU
	for _, item := range items {
		gpu := GPU{}
		if name, ok := item["Name"].(string); ok {
			gpu.Name = name
		}
		if memory, ok := item[memoryKey].(float64); ok && memory > 0 {
			gpu.MemoryBytes = uint64(memory)
		}
		gpus = append(gpus, gpu)
	}
	return gpus
}

// mergeGPUMemory folds memory figures from updates into gpus, matching
// adapters by case-insensitive name containment in either direction and
// keeping the larger figure.
func mergeGPUMemory(gpus, updates []GPU) []GPU {
	if len(gpus) == 0 {
		return updates
	}
	if len(updates) == 0 {
		return gpus
	}

	for i := range gpus {
		name := strings.ToLower(gpus[i].Name)
		if name == "" {
			continue
		}
		for _, update := range updates {
			updateName := strings.ToLower(update.Name)
			if updateName == "" || update.MemoryBytes == 0 {
				continue
			}
			if strings.Contains(name, updateName) || strings.Contains(updateName, name) {
				if update.MemoryBytes > gpus[i].MemoryBytes {
					gpus[i].MemoryBytes = update.MemoryBytes
				}
			}
		}
	}
	return gpus
}

var memoryPattern = regexp.MustCompile(`([\d.]+)\s*([a-zA-Z]+)?`)

// parseMemoryToBytes parses vendor-tool memory strings like "24576 MiB"
// or "8 GB". Unitless values are taken as bytes.
func parseMemoryToBytes(value string) uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	match := memoryPattern.FindStringSubmatch(value)
	if match == nil {
		return 0
	}

	number, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(match[2]) {
	case "gib", "gb":
		return uint64(number * 1024 * 1024 * 1024)
	case "mib", "mb":
		return uint64(number * 1024 * 1024)
	default:
		return uint64(number)
	}
}
