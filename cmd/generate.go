package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/railops/datagen"
	"github.com/kilianp07/railops/infra/logger"
)

var (
	generateOut  string
	generateSeed int64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dummy planning dataset",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "dataset.json", "output dataset file")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0, "random seed (0 keeps the configured seed; a zero configured seed derives one from the clock)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gen := cfg.Generator
	if generateSeed != 0 {
		gen.Seed = generateSeed
	}

	ds, err := datagen.Generate(gen)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(generateOut, data, 0o644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	logger.New("generate").Infof("dataset written: %d vehicles, %d routes", len(ds.Vehicles), len(ds.Routes))
	fmt.Printf("dataset written to %s\n", generateOut)
	return nil
}
