// Package sysinfo inspects the host the service runs on: CPU topology,
// memory, and GPUs discovered by shelling out to platform tools.
package sysinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info is the system snapshot returned by /system-info.
type Info struct {
	Platform  string     `json:"platform"`
	GoVersion string     `json:"go_version"`
	CPU       CPUInfo    `json:"cpu"`
	Memory    MemoryInfo `json:"memory"`
	GPUs      []GPU      `json:"gpus"`
	Env       EnvInfo    `json:"env"`
}

// CPUInfo describes the host CPU.
type CPUInfo struct {
	LogicalCores  int    `json:"logical_cores"`
	PhysicalCores int    `json:"physical_cores"`
	Model         string `json:"model"`
}

// MemoryInfo describes host memory.
type MemoryInfo struct {
	TotalBytes uint64 `json:"total_bytes"`
}

// EnvInfo carries the environment knobs relevant to model loading.
type EnvInfo struct {
	ModelPath string `json:"SOUNDLENS_MODEL_PATH"`
}

// Collect gathers the full system snapshot. Failures of individual
// probes degrade to zero values rather than failing the whole call.
func Collect(ctx context.Context) *Info {
	info := &Info{
		Platform:  platformString(ctx),
		GoVersion: runtime.Version(),
		GPUs:      DiscoverGPUs(ctx),
		Env: EnvInfo{
			ModelPath: os.Getenv("SOUNDLENS_MODEL_PATH"),
		},
	}

	if logical, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPU.LogicalCores = logical
	}
	if physical, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.CPU.PhysicalCores = physical
	}
	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		info.CPU.Model = cpuInfo[0].ModelName
	}
	if info.CPU.Model == "" {
		info.CPU.Model = runtime.GOARCH
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.Memory.TotalBytes = vm.Total
	}

	return info
}

// RecommendBufferSeconds picks an analysis buffer length from the
// logical core count: small machines get longer buffers so inference
// keeps up with ingest.
func RecommendBufferSeconds(cores int) float64 {
	if cores <= 4 {
		return 10.0
	}
	if cores <= 8 {
		return 5.0
	}
	return 2.0
}

func platformString(ctx context.Context) string {
	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		return fmt.Sprintf("%s-%s-%s", hostInfo.OS, hostInfo.PlatformVersion, hostInfo.KernelArch)
	}
	return runtime.GOOS + "-" + runtime.GOARCH
}
