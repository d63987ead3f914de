package api

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/whit3rabbit/bleachcode/internal/config"
)

func TestNewBleacher(t *testing.T) {
	// Test with default empty options - this should use default config
	b, err := NewBleacher(Options{})
	if err != nil {
		t.Errorf("Expected default config to be used, got error: %v", err)
	}
	if b == nil {
		t.Fatalf("Expected non-nil Bleacher with default config, got nil")
	}
	if b.Config.Alias.Alphabet != config.AlphabetInvisible {
		t.Errorf("Expected the invisible alphabet by default, got %q", b.Config.Alias.Alphabet)
	}

	configContent := `
# Test configuration
silent: true
alias:
  alphabet: visible
  prefix: t_
rewrite:
  keep_punctuation: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	b, err = NewBleacher(Options{ConfigPath: configPath})
	if err != nil {
		t.Fatalf("NewBleacher with valid config failed: %v", err)
	}
	if b.Context == nil {
		t.Errorf("Expected non-nil Context in Bleacher, got nil")
	}
	if got := b.Context.Alphabet.Encode(0); got != "t_a" {
		t.Errorf("Expected configured prefix, got alias %q", got)
	}

	// Missing explicit config and invalid alphabet are errors.
	if _, err := NewBleacher(Options{ConfigPath: filepath.Join(tmpDir, "missing.yaml")}); err == nil {
		t.Errorf("Expected an error for a missing config file")
	}
	if _, err := NewBleacher(Options{Silent: true, Alphabet: "custom"}); err == nil {
		t.Errorf("Expected an error for a custom alphabet without symbols")
	}
}

func TestBleachCode(t *testing.T) {
	b, err := NewBleacher(Options{Silent: true, Alphabet: config.AlphabetVisible, KeepPunctuation: true})
	if err != nil {
		t.Fatalf("NewBleacher failed: %v", err)
	}

	code := `// This is a test comment
int x = 5;
`
	result, err := b.BleachCode(code)
	if err != nil {
		t.Fatalf("BleachCode failed: %v", err)
	}
	want := "#define bleached_a int\n#define bleached_b x\n#define bleached_c 5\n\nbleached_a bleached_b = bleached_c;\n"
	if result != want {
		t.Errorf("BleachCode() =\n%q\nwant\n%q", result, want)
	}
	if strings.Contains(result, "test comment") {
		t.Errorf("Expected comments to be removed, but found comment text")
	}

	// Every call starts with a fresh table.
	again, err := b.BleachCode(code)
	if err != nil {
		t.Fatalf("BleachCode failed: %v", err)
	}
	if again != result {
		t.Errorf("Expected identical output for identical input")
	}

	if _, err := b.BleachCode(`char *s = "unterminated;`); err == nil {
		t.Errorf("Expected an error for an unterminated string literal")
	}
}

func TestBleachFileToFile(t *testing.T) {
	tmpDir := t.TempDir()
	inputPath := filepath.Join(tmpDir, "input.c")
	outputPath := filepath.Join(tmpDir, "output", "output.c")
	mapPath := filepath.Join(tmpDir, "input.map")
	code := "#include <stdio.h>\nint main(void) { printf(\"hi\\n\"); return 0; }\n"
	if err := os.WriteFile(inputPath, []byte(code), 0644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	b, err := NewBleacher(Options{Silent: true, Alphabet: config.AlphabetVisible})
	if err != nil {
		t.Fatalf("NewBleacher failed: %v", err)
	}
	b.Config.Mapping.File = mapPath

	if err := b.BleachFileToFile(inputPath, outputPath); err != nil {
		t.Fatalf("BleachFileToFile failed: %v", err)
	}
	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("Failed to read bleached file: %v", err)
	}
	if !strings.Contains(string(content), "#include <stdio.h>\n") {
		t.Errorf("Expected the include line to survive, got:\n%s", content)
	}

	fromFile, err := b.BleachFile(inputPath)
	if err != nil {
		t.Fatalf("BleachFile failed: %v", err)
	}
	if fromFile != string(content) {
		t.Errorf("BleachFile and BleachFileToFile disagree")
	}

	original, err := b.LookupAlias(mapPath, "bleached_a")
	if err != nil {
		t.Fatalf("LookupAlias failed: %v", err)
	}
	if original != "int" {
		t.Errorf("LookupAlias(bleached_a) = %q, want %q", original, "int")
	}
	if _, err := b.LookupAlias(mapPath, "bleached_zzz"); err == nil {
		t.Errorf("Expected an error for an unknown alias")
	}
}

func TestBleachDirectory(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	files := map[string]string{
		"main.c":         "int main(void) { return helper(); }\n",
		"src/helper.c":   "int helper(void) { return 0; }\n",
		"docs/notes.txt": "not C\n",
	}
	for name, content := range files {
		path := filepath.Join(inputDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	b, err := NewBleacher(Options{Silent: true})
	if err != nil {
		t.Fatalf("NewBleacher failed: %v", err)
	}
	if err := b.BleachDirectory(inputDir, outputDir); err != nil {
		t.Fatalf("BleachDirectory failed: %v", err)
	}

	for _, name := range []string{"main.c", "src/helper.c"} {
		content, err := os.ReadFile(filepath.Join(outputDir, "bleached", name))
		if err != nil {
			t.Errorf("Expected bleached %s: %v", name, err)
			continue
		}
		if !strings.HasPrefix(string(content), "#define ") {
			t.Errorf("Expected %s to start with the prologue", name)
		}
		if _, err := os.Stat(filepath.Join(outputDir, "context", name+".map")); err != nil {
			t.Errorf("Expected a mapping for %s: %v", name, err)
		}
	}
	notes, err := os.ReadFile(filepath.Join(outputDir, "bleached", "docs", "notes.txt"))
	if err != nil || string(notes) != "not C\n" {
		t.Errorf("Expected notes.txt to be copied unchanged, got %q (%v)", notes, err)
	}
}

func TestPrintInfo(t *testing.T) {
	// Capture stdout
	originalStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	config.Testing = false
	PrintInfo("Test output: %s\n", "visible")

	w.Close()
	os.Stdout = originalStdout
	var buf bytes.Buffer
	io.Copy(&buf, r)

	if !strings.Contains(buf.String(), "Test output: visible") {
		t.Error("Expected output to be printed when Testing=false")
	}

	r, w, _ = os.Pipe()
	os.Stdout = w

	config.Testing = true
	PrintInfo("Test output: %s\n", "invisible")

	w.Close()
	os.Stdout = originalStdout
	buf.Reset()
	io.Copy(&buf, r)

	if buf.String() != "" {
		t.Errorf("Expected no output when Testing=true, got: %s", buf.String())
	}

	config.Testing = false
}
