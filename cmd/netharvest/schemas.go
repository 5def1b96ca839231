// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/meshintel/netharvest/internal/schema"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the tables a definition file declares",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		file, _ := cmd.Flags().GetString("file")
		dir, _ := cmd.Flags().GetString("path")
		if dir == "" {
			dir = cfg.Extract.SchemaDir
		}

		if err := schema.CheckSource(file); err != nil {
			return err
		}

		names, err := schema.Names(filepath.Join(dir, file))
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	schemasCmd.Flags().String("file", "", "YAML definition file to inspect")
	schemasCmd.Flags().String("path", "", "directory holding the definition file (default: configured schema dir)")

	schemasCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(schemasCmd)
}
