package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundlens/soundlens/configs"
	"github.com/soundlens/soundlens/internal/app"
)

var (
	classifyLabels     string
	classifyPresetFile string
	classifyPresetName string
	classifyJSON       bool
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify [flags] <audio-file>",
	Short: "Classify a local audio file",
	Long: `Classify sound events in a local WAV (or raw s16le PCM) file.

Labels come from --labels, or from a named preset in a YAML file:

  - name: city
    labels: [car horn, engine, siren, speech]

Examples:
  # Classify against an inline label list
  soundlens classify --labels "speech,applause,car horn" recording.wav

  # Use a label preset file
  soundlens classify --preset-file labels.yaml --preset city recording.wav

  # Emit the full per-frame result as JSON
  soundlens classify --labels speech --json recording.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVarP(&classifyLabels, "labels", "l",
		"speech,applause,car horn,engine,keyboard typing",
		"comma-separated label prompts")
	classifyCmd.Flags().StringVar(&classifyPresetFile, "preset-file", "",
		"YAML file with named label presets")
	classifyCmd.Flags().StringVar(&classifyPresetName, "preset", "",
		"preset name to select from --preset-file")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false,
		"print the full result as JSON instead of a ranked summary")
}

func runClassify(cmd *cobra.Command, args []string) error {
	labels, err := resolveLabels()
	if err != nil {
		return err
	}

	appCtx := &app.Context{
		ConfigFile: configFile,
		Verbose:    verbose,
		Quiet:      quiet,
	}

	application, err := app.NewApp(appCtx)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.ClassifyFile(context.Background(), args[0], labels)
	if err != nil {
		return err
	}

	if classifyJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	type ranked struct {
		label string
		score float64
	}
	rankings := make([]ranked, 0, len(result.Aggregates))
	for label, score := range result.Aggregates {
		rankings = append(rankings, ranked{label, score})
	}
	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].score > rankings[j].score
	})

	fmt.Printf("Duration: %.1fs, %d chunk(s)\n", result.DurationSeconds, len(result.Chunks))
	fmt.Println("Scores:")
	for _, r := range rankings {
		fmt.Printf("- %s: %.4f\n", r.label, r.score)
	}
	return nil
}

func resolveLabels() ([]string, error) {
	if classifyPresetFile != "" {
		presets, err := configs.LoadLabelPresets(classifyPresetFile)
		if err != nil {
			return nil, err
		}
		for _, preset := range presets {
			if preset.Name == classifyPresetName {
				if len(preset.Labels) == 0 {
					return nil, fmt.Errorf("preset %q has no labels", classifyPresetName)
				}
				return preset.Labels, nil
			}
		}
		return nil, fmt.Errorf("preset %q not found in %s", classifyPresetName, classifyPresetFile)
	}

	var labels []string
	for _, label := range strings.Split(classifyLabels, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels provided")
	}
	return labels, nil
}
