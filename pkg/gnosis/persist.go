package gnosis

// persist.go implements Save/Load against the two-file text format the
// reference implementation uses: a "syndromes" file (one line per entity,
// encoded entity id followed by its encoded signature members) and a
// "sequences" file (one line per entity that has a sequence assigned,
// encoded entity id followed by its encoded elements in order). IDs are
// encoded with internal/codec.Encode.
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
	"github.com/Voskan/gnosis/internal/signset"
)

func zapFields(dir string, syndromes, sequences int) []zap.Field {
	return []zap.Field{zap.String("dir", dir), zap.Int("syndromes", syndromes), zap.Int("sequences", sequences)}
}

const (
	syndromesFile = "syndromes"
	sequencesFile = "sequences"
)

// Save writes every entity's signature and sequence into dir, creating it
// if necessary. Returns the number of syndromes and sequences written.
func (g *Gnosis) Save(dir string) (syndromeCount, sequenceCount int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("gnosis: save: %w", err)
	}
	synF, err := os.Create(filepath.Join(dir, syndromesFile))
	if err != nil {
		return 0, 0, fmt.Errorf("gnosis: save: %w", err)
	}
	defer synF.Close()
	seqF, err := os.Create(filepath.Join(dir, sequencesFile))
	if err != nil {
		return 0, 0, fmt.Errorf("gnosis: save: %w", err)
	}
	defer seqF.Close()

	synW := bufio.NewWriter(synF)
	seqW := bufio.NewWriter(seqF)

	for _, s := range g.shards {
		s.mu.RLock()
		for id, sig := range s.signatures {
			synW.WriteString(codec.Encode(id))
			for _, sign := range sig.Enumerate() {
				synW.WriteByte(' ')
				synW.WriteString(codec.Encode(sign))
			}
			synW.WriteByte('\n')
			syndromeCount++
		}
		for id, seq := range s.sequences {
			if seq.Size() == 0 {
				continue
			}
			seqW.WriteString(codec.Encode(id))
			for _, elem := range seq.Items() {
				seqW.WriteByte(' ')
				seqW.WriteString(codec.Encode(elem))
			}
			seqW.WriteByte('\n')
			sequenceCount++
		}
		s.mu.RUnlock()
	}
	if err := synW.Flush(); err != nil {
		return 0, 0, fmt.Errorf("gnosis: save: %w", err)
	}
	if err := seqW.Flush(); err != nil {
		return 0, 0, fmt.Errorf("gnosis: save: %w", err)
	}
	g.cfg.logger.Info("gnosis saved", zapFields(dir, syndromeCount, sequenceCount)...)
	return syndromeCount, sequenceCount, nil
}

// Load replaces every shard's contents with the syndromes and sequences
// found under dir. Existing entities (including the congenital
// vocabulary) are cleared first — Load is meant for bootstrapping a fresh
// Gnosis, not merging into a live one.
func (g *Gnosis) Load(dir string) (syndromeCount, sequenceCount int, err error) {
	synPath := filepath.Join(dir, syndromesFile)
	seqPath := filepath.Join(dir, sequencesFile)
	if _, err := os.Stat(synPath); err != nil {
		return 0, 0, fmt.Errorf("gnosis: load: %w", err)
	}
	if _, err := os.Stat(seqPath); err != nil {
		return 0, 0, fmt.Errorf("gnosis: load: %w", err)
	}

	for _, s := range g.shards {
		s.mu.Lock()
		s.signatures = make(map[codec.Identity]*signset.Signature)
		s.sequences = make(map[codec.Identity]*signset.Sequence)
		s.mu.Unlock()
	}

	synF, err := os.Open(synPath)
	if err != nil {
		return 0, 0, fmt.Errorf("gnosis: load: %w", err)
	}
	defer synF.Close()
	scanner := bufio.NewScanner(synF)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		id, ok := codec.Decode(fields[0])
		if !ok {
			return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: malformed entity id %q", fields[0])
		}
		sig := g.shardFor(id).insert(id)
		for _, tok := range fields[1:] {
			sign, ok := codec.Decode(tok)
			if !ok {
				return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: malformed sign id %q", tok)
			}
			sig.Insert(sign)
		}
		syndromeCount++
	}
	if err := scanner.Err(); err != nil {
		return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: %w", err)
	}

	seqF, err := os.Open(seqPath)
	if err != nil {
		return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: %w", err)
	}
	defer seqF.Close()
	scanner = bufio.NewScanner(seqF)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		id, ok := codec.Decode(fields[0])
		if !ok {
			return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: malformed entity id %q", fields[0])
		}
		if !g.shardFor(id).exists(id) {
			return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: sequence for unknown entity %q", fields[0])
		}
		seq := signset.NewSequence(len(fields) - 1)
		for _, tok := range fields[1:] {
			elem, ok := codec.Decode(tok)
			if !ok {
				return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: malformed sequence element %q", tok)
			}
			seq.Append(elem)
		}
		g.shardFor(id).setSequence(id, seq)
		sequenceCount++
	}
	if err := scanner.Err(); err != nil {
		return syndromeCount, sequenceCount, fmt.Errorf("gnosis: load: %w", err)
	}
	g.cfg.logger.Info("gnosis loaded", zapFields(dir, syndromeCount, sequenceCount)...)
	return syndromeCount, sequenceCount, nil
}
