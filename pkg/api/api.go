// Package api provides the public API for using the C source bleacher as a library.
//
// Basic usage example:
//
//	b, err := api.NewBleacher(api.Options{ConfigPath: "bleach.yaml"})
//	if err != nil {
//	    log.Fatalf("Failed to create bleacher: %v", err)
//	}
//
//	result, err := b.BleachCode("int main(void) { return 0; }\n")
//	if err != nil {
//	    log.Fatalf("Failed to bleach code: %v", err)
//	}
//
//	fmt.Print(result) // #define prologue followed by the invisible body
package api

import (
	"fmt"

	"github.com/whit3rabbit/bleachcode/internal/alias"
	"github.com/whit3rabbit/bleachcode/internal/bleacher"
	"github.com/whit3rabbit/bleachcode/internal/config"
)

// PrintInfo prints formatted information to stdout, respecting the Testing flag.
// This function forwards to the internal config.PrintInfo function.
func PrintInfo(format string, args ...interface{}) {
	config.PrintInfo(format, args...)
}

// Bleacher rewrites C source into aliases. Every call starts from a fresh
// alias table, so one Bleacher can process many unrelated sources.
type Bleacher struct {
	// Context holds the validated alphabet and mapping key
	Context *bleacher.Context
	// Config holds the configuration settings
	Config *config.Config
}

// Options represents configuration options for creating a new Bleacher instance.
type Options struct {
	// ConfigPath is the path to a YAML configuration file.
	// If empty, ./bleach.yaml is used when present, defaults otherwise.
	ConfigPath string

	// Silent suppresses informational messages
	Silent bool

	// Alphabet overrides the configured alias alphabet when not empty
	// ("invisible", "visible" or "custom").
	Alphabet string

	// KeepPunctuation leaves operators other than ( ) , unaliased.
	KeepPunctuation bool
}

// NewBleacher creates a new Bleacher instance using the provided options.
//
// Returns an error if the configuration cannot be loaded or holds an invalid
// alphabet or mapping key.
func NewBleacher(options Options) (*Bleacher, error) {
	cfg, err := config.LoadConfig(options.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if options.Silent {
		cfg.Silent = true
	}
	if options.Alphabet != "" {
		cfg.Alias.Alphabet = options.Alphabet
	}
	if options.KeepPunctuation {
		cfg.Rewrite.KeepPunctuation = true
	}

	ctx, err := bleacher.NewContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleaching context: %w", err)
	}

	return &Bleacher{
		Context: ctx,
		Config:  cfg,
	}, nil
}

// BleachCode bleaches a string of C code and returns the prologue followed
// by the rewritten body.
func (b *Bleacher) BleachCode(code string) (string, error) {
	res, err := b.Context.ProcessSource("<input>", code)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// BleachFile bleaches a single file and returns the result as a string.
func (b *Bleacher) BleachFile(filePath string) (string, error) {
	res, err := bleacher.ProcessFile(filePath, b.Context)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// BleachFileToFile bleaches inputPath into outputPath. When the
// configuration names a mapping file the alias table is saved there too.
func (b *Bleacher) BleachFileToFile(inputPath, outputPath string) error {
	_, err := b.Context.BleachFile(inputPath, outputPath)
	return err
}

// BleachDirectory bleaches a source tree into outputDir/bleached and saves
// one mapping per bleached file under outputDir/context.
func (b *Bleacher) BleachDirectory(inputDir, outputDir string) error {
	_, err := b.Context.ProcessDir(inputDir, outputDir)
	return err
}

// LookupAlias returns the original text behind name in a mapping file
// written by a previous run. The configured mapping key opens sealed files.
func (b *Bleacher) LookupAlias(mappingPath, name string) (string, error) {
	table, err := alias.LoadMapping(mappingPath, b.Context.Key)
	if err != nil {
		return "", fmt.Errorf("failed to load mapping: %w", err)
	}
	original, ok := table.Original(name)
	if !ok {
		return "", fmt.Errorf("alias %q not found in %s", name, mappingPath)
	}
	return original, nil
}
