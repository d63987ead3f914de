// Package bleacher orchestrates a bleaching run and holds the shared context.
package bleacher

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/whit3rabbit/bleachcode/internal/alias"
	"github.com/whit3rabbit/bleachcode/internal/config"
	"github.com/whit3rabbit/bleachcode/internal/lexer"
	"github.com/whit3rabbit/bleachcode/internal/rewriter"
)

// Context holds what every file of a run needs: the configuration, the
// alias alphabet and the optional mapping key. Alias tables are not part of
// it; each processed source gets a fresh one.
type Context struct {
	Config   *config.Config
	Alphabet alias.Alphabet
	Key      []byte // mapping seal key, nil when mappings are plain YAML
	Silent   bool   // Inherited from config for convenience
	Logger   *log.Logger
}

// NewContext validates the alias and mapping settings of cfg.
func NewContext(cfg *config.Config) (*Context, error) {
	a, err := alias.FromConfig(cfg.Alias)
	if err != nil {
		return nil, fmt.Errorf("invalid alias settings: %w", err)
	}
	key, err := alias.ParseKey(cfg.Mapping.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid mapping key: %w", err)
	}
	return &Context{
		Config:   cfg,
		Alphabet: a,
		Key:      key,
		Silent:   cfg.Silent,
		Logger:   log.New(os.Stderr, "debug: ", 0),
	}, nil
}

// Result is one bleached source.
type Result struct {
	Prologue string       // #define lines, one per alias
	Body     string       // the rewritten source
	Table    *alias.Table // aliases used by Prologue and Body
}

// String returns the complete output file content.
func (r *Result) String() string {
	return r.Prologue + r.Body
}

// ProcessSource bleaches src. name is only used in error positions.
func (c *Context) ProcessSource(name, src string) (*Result, error) {
	cfg := c.Config
	toks, err := lexer.Tokenize(src, lexer.Options{
		Filename:        name,
		KeepPunctuation: cfg.Rewrite.KeepPunctuation,
	})
	if err != nil {
		return nil, fmt.Errorf("error tokenizing %s: %w", name, err)
	}

	table := alias.NewTable(c.Alphabet)
	eng := rewriter.New(table, rewriter.Options{
		Preserve:         cfg.Preserve.Identifiers,
		PreservePrefixes: cfg.Preserve.Prefixes,
		ExemptDirectives: cfg.Rewrite.ExemptDirectives,
		Debug:            cfg.DebugMode,
		Logger:           c.Logger,
	})
	cur := lexer.NewCursor(toks)
	body := eng.Rewrite(&cur)

	var prologue strings.Builder
	if err := table.WritePrologue(&prologue); err != nil {
		return nil, fmt.Errorf("error writing prologue: %w", err)
	}
	if cfg.DebugMode {
		c.Logger.Printf("%s: %d tokens, %d aliases", name, len(toks), table.Len())
	}
	return &Result{Prologue: prologue.String(), Body: body, Table: table}, nil
}

// ProcessFile reads and bleaches a single file.
func ProcessFile(filePath string, bctx *Context) (*Result, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		// Return error without printing to stderr here, let caller handle reporting.
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	return bctx.ProcessSource(filePath, string(src))
}

// WriteOutput writes res to path in one pass.
func WriteOutput(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %w", path, err)
	}
	if err := writeResult(f, res); err != nil {
		f.Close()
		return fmt.Errorf("error writing output file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing output file %s: %w", path, err)
	}
	return nil
}

func writeResult(w io.Writer, res *Result) error {
	if _, err := io.WriteString(w, res.Prologue); err != nil {
		return err
	}
	_, err := io.WriteString(w, res.Body)
	return err
}

// BleachFile bleaches input into output and, when a mapping file is
// configured, saves the alias table next to it. Nothing is written if the
// input cannot be bleached.
func (c *Context) BleachFile(input, output string) (*Result, error) {
	if !c.Silent {
		config.PrintInfo("Processing file: %s\n", input)
	}
	res, err := ProcessFile(input, c)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("error creating directory for %s: %w", output, err)
	}
	if err := WriteOutput(output, res); err != nil {
		return nil, err
	}
	if mapFile := c.Config.Mapping.File; mapFile != "" {
		if err := res.Table.SaveMapping(mapFile, c.Key); err != nil {
			return nil, fmt.Errorf("error saving mapping: %w", err)
		}
		if !c.Silent {
			config.PrintInfo("Info: Saved alias mapping to %s\n", mapFile)
		}
	}
	if !c.Silent {
		config.PrintInfo("Wrote %s (%d aliases)\n", output, res.Table.Len())
	}
	return res, nil
}
