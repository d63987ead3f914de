package alias

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"gopkg.in/yaml.v3"
)

// mappingVersion identifies the mapping file layout.
const mappingVersion = "bleach-map-v1"

// sealedMagic starts every sealed mapping file.
var sealedMagic = []byte("BLEACHSEALED1\n")

// mappingFile is the on-disk form of a Table.
type mappingFile struct {
	Version  string         `yaml:"version"`
	Alphabet mappingLetters `yaml:"alphabet"`
	Pairs    []Pair         `yaml:"pairs"`
}

type mappingLetters struct {
	Symbols []string `yaml:"symbols"`
	Prefix  string   `yaml:"prefix,omitempty"`
}

// ParseKey decodes a hex encoded mapping key. An empty string yields a nil
// key, meaning the mapping file is stored in the clear.
func ParseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("mapping key is not hex: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("mapping key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return key, nil
}

// SaveMapping writes the table's pairs to path as YAML. A non-nil key seals
// the file with ChaCha20-Poly1305.
func (t *Table) SaveMapping(path string, key []byte) error {
	data, err := yaml.Marshal(mappingFile{
		Version:  mappingVersion,
		Alphabet: mappingLetters{Symbols: t.alphabet.Symbols(), Prefix: t.alphabet.Prefix()},
		Pairs:    t.pairs,
	})
	if err != nil {
		return fmt.Errorf("failed to encode alias mapping: %w", err)
	}
	if key != nil {
		if data, err = seal(key, data); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write alias mapping to file %s: %w", path, err)
	}
	return nil
}

// LoadMapping reads a mapping file written by SaveMapping and rebuilds the
// table, checking that every alias is the one its position implies.
func LoadMapping(path string, key []byte) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias mapping file %s: %w", path, err)
	}
	if bytes.HasPrefix(data, sealedMagic) {
		if key == nil {
			return nil, fmt.Errorf("alias mapping file %s is sealed; a key is required", path)
		}
		if data, err = open(key, data); err != nil {
			return nil, fmt.Errorf("failed to unseal alias mapping file %s: %w", path, err)
		}
	}

	var mf mappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to decode alias mapping from file %s: %w", path, err)
	}
	if mf.Version != mappingVersion {
		return nil, fmt.Errorf("incompatible mapping version: file has '%s', expected '%s'", mf.Version, mappingVersion)
	}
	a, err := NewAlphabet(mf.Alphabet.Symbols, mf.Alphabet.Prefix)
	if err != nil {
		return nil, fmt.Errorf("alias mapping file %s: %w", path, err)
	}

	t := NewTable(a)
	for i, p := range mf.Pairs {
		if got := t.Resolve(p.Original); got != p.Alias {
			return nil, fmt.Errorf("alias mapping file %s: pair %d: alias does not match its position", path, i)
		}
	}
	return t, nil
}

func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate mapping nonce: %w", err)
	}
	out := append([]byte(nil), sealedMagic...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, sealedMagic), nil
}

func open(key, data []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping cipher: %w", err)
	}
	data = data[len(sealedMagic):]
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("sealed mapping is truncated")
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, sealedMagic)
}
