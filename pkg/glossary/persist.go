package glossary

// persist.go implements Save/Load against the "glossary" dump file: one
// line per named entity, "<enc-id> <name>\n". Loading clears and
// repopulates, matching glossary.h's load().
//
// © 2025 gnosis authors. MIT License.

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Voskan/gnosis/internal/codec"
)

const glossaryFile = "glossary"

// Save writes every named entity into dir/glossary, creating dir if
// necessary. Returns the number of names written.
func (gl *Glossary) Save(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("glossary: save: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, glossaryFile))
	if err != nil {
		return 0, fmt.Errorf("glossary: save: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	gl.mu.RLock()
	n := 0
	for id, name := range gl.lex {
		if strings.ContainsRune(name, '\n') {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", codec.Encode(id), name)
		n++
	}
	gl.mu.RUnlock()
	if err := w.Flush(); err != nil {
		return n, fmt.Errorf("glossary: save: %w", err)
	}
	gl.cfg.logger.Info("glossary saved", zap.String("dir", dir), zap.Int("names", n))
	return n, nil
}

// Load replaces the glossary's contents with dir/glossary's. Every named
// identity must already exist in the bound Gnosis (Load runs after
// Gnosis.Load, never before).
func (gl *Glossary) Load(dir string) (int, error) {
	path := filepath.Join(dir, glossaryFile)
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("glossary: load: %w", err)
	}
	defer f.Close()

	gl.mu.Lock()
	gl.lex = make(map[codec.Identity]string)
	gl.identity = make(map[string]codec.Identity)
	gl.mu.Unlock()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return n, fmt.Errorf("glossary: load: malformed line %q", line)
		}
		id, ok := codec.Decode(line[:sp])
		if !ok {
			return n, fmt.Errorf("glossary: load: malformed entity id %q", line[:sp])
		}
		name := line[sp+1:]
		if name == "" {
			return n, fmt.Errorf("glossary: load: empty name for %q", line[:sp])
		}
		gl.Let(gl.g.Recover(id), name)
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("glossary: load: %w", err)
	}
	gl.cfg.logger.Info("glossary loaded", zap.String("dir", dir), zap.Int("names", n))
	return n, nil
}

// SaveAll writes the bound Gnosis's syndromes and sequences followed by
// this Glossary's names into dir, all three files in one directory.
func (gl *Glossary) SaveAll(dir string) (syndromes, sequences, names int, err error) {
	syndromes, sequences, err = gl.g.Save(dir)
	if err != nil {
		return 0, 0, 0, err
	}
	names, err = gl.Save(dir)
	if err != nil {
		return syndromes, sequences, 0, err
	}
	return syndromes, sequences, names, nil
}

// LoadAll replaces the bound Gnosis's graph and this Glossary's names from
// dir, in the order Load requires: the graph first, since glossary entries
// name identities that must already exist.
func (gl *Glossary) LoadAll(dir string) (syndromes, sequences, names int, err error) {
	syndromes, sequences, err = gl.g.Load(dir)
	if err != nil {
		return 0, 0, 0, err
	}
	names, err = gl.Load(dir)
	if err != nil {
		return syndromes, sequences, 0, err
	}
	return syndromes, sequences, names, nil
}
