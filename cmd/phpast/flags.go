package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast"
)

// engineFlags are the conversion switches shared by the converting commands.
// Flags left unset keep the configured value.
type engineFlags struct {
	schema         int
	placeholders   bool
	strictDispatch bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.schema, "schema", 0, "php-ast schema version (50, 70, 80, 85)")
	cmd.Flags().BoolVar(&f.placeholders, "placeholders", false, "substitute placeholders for incomplete code")
	cmd.Flags().BoolVar(&f.strictDispatch, "strict-dispatch", false, "fail on syntax shapes without a conversion")
}

func (f *engineFlags) options(cmd *cobra.Command) []phpast.Option {
	var opts []phpast.Option

	if cmd.Flags().Changed("schema") {
		opts = append(opts, phpast.WithSchemaVersion(f.schema))
	}

	if cmd.Flags().Changed("placeholders") {
		opts = append(opts, phpast.WithPlaceholders(f.placeholders))
	}

	if cmd.Flags().Changed("strict-dispatch") {
		opts = append(opts, phpast.WithDebugStrictDispatch(f.strictDispatch))
	}

	return opts
}
