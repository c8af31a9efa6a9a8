package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundlens/soundlens/internal/sysinfo"
)

// sysinfoCmd represents the sysinfo command
var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Print host CPU, memory and GPU information",
	Long: `Inspect the host the service would run on: CPU topology, total
memory, and GPUs discovered via nvidia-smi, system_profiler or
PowerShell CIM queries depending on platform.`,
	RunE: runSysinfo,
}

func init() {
	rootCmd.AddCommand(sysinfoCmd)
}

func runSysinfo(cmd *cobra.Command, args []string) error {
	info := sysinfo.Collect(context.Background())

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}
