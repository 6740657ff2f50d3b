package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/salescoach/salescoach/internal/storage"
)

func loadReferenceFile(cmd *cobra.Command, ref *storage.ReferenceStore, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	parsed, err := storage.ParseReferenceData(data)
	if err != nil {
		return 0, err
	}
	return ref.Load(cmd.Context(), parsed)
}
