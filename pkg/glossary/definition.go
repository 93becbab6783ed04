package glossary

// definition.go renders human-readable text for an entity: its name (or
// encoded id if anonymous), its non-attribute signs, its attribute values
// (read through an attrstore.Storage), and its sequence. Rendering is
// split the way the reference implementation splits lex/ref/definition:
// Lex names a single entity, Ref names-or-describes one, Definition
// composes the full line.
//
// © 2025 gnosis authors. MIT License.

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/pkg/attrstore"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

// Dict is an optional fallback name source consulted when an entity has no
// glossary name of its own.
type Dict func(codec.Identity) string

const emptySet = "∅"

// Lex returns e's glossary name, quoted if it contains anything other
// than alphanumerics and underscore, or "" if e has none. When dict is
// non-nil and e has no glossary name, dict(e.ID()) is consulted as a
// fallback.
func (gl *Glossary) Lex(e gnosis.Entity, dict Dict) string {
	gl.mu.RLock()
	name, ok := gl.lex[e.ID()]
	gl.mu.RUnlock()
	if ok {
		return quoteIfNeeded(name)
	}
	if dict != nil {
		if name := dict(e.ID()); name != "" {
			return name
		}
	}
	return ""
}

func quoteIfNeeded(name string) string {
	for _, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return "'" + name + "'"
	}
	return name
}

// Key returns the encoded-id token for e, the fallback used when e has no
// name: "[[<enc-id>]]".
func Key(e gnosis.Entity) string {
	return "[[" + codec.Encode(e.ID()) + "]]"
}

// LexOrID returns e's glossary name if any, or its encoded-id token.
func (gl *Glossary) LexOrID(e gnosis.Entity, dict Dict) string {
	if name := gl.Lex(e, dict); name != "" {
		return name
	}
	return Key(e)
}

// Ref names e: its glossary name if it has one, else a syndrome
// description "(sign1 sign2 ...)" if its (non-IMMUTABLE, non-IMMORTAL)
// syndrome identifies it uniquely, else the empty-set symbol.
func (gl *Glossary) Ref(ctx context.Context, e gnosis.Entity, dict Dict) string {
	if name := gl.Lex(e, dict); name != "" {
		return name
	}
	sig := e.Signature()
	filtered := make([]codec.Identity, 0, len(sig))
	for _, s := range sig {
		if s == gnosis.IMMUTABLE || s == gnosis.IMMORTAL {
			continue
		}
		filtered = append(filtered, s)
	}
	if len(filtered) == 0 {
		return emptySet
	}
	id, err := gl.g.UniqueEntityID(ctx, filtered)
	if err != nil || id == codec.NIHIL {
		return emptySet
	}
	parts := make([]string, 0, len(filtered))
	for _, s := range filtered {
		parts = append(parts, gl.Ref(ctx, gl.g.Recover(s), dict))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Definition renders subj's full definition line: name-or-id, then each
// non-attribute sign, then each attribute sign with its stored value
// (via values, if non-nil), then the sequence if any, terminated by " .".
func (gl *Glossary) Definition(subj gnosis.Entity, values attrstore.Storage, dict Dict) string {
	g := gl.g
	var b strings.Builder
	b.WriteString(gl.LexOrID(subj, dict))
	b.WriteByte(':')

	var plain, attrs []gnosis.Entity
	for _, id := range subj.Signature() {
		sign := g.Recover(id)
		if g.Contains(id, gnosis.ATTRIBUTE) {
			attrs = append(attrs, sign)
		} else {
			plain = append(plain, sign)
		}
	}
	plain = append(plain, attrs...)

	for _, sign := range plain {
		b.WriteByte(' ')
		b.WriteString(gl.LexOrID(sign, dict))
		if !g.Contains(sign.ID(), gnosis.ATTRIBUTE) {
			continue
		}
		b.WriteString(":=")
		if values == nil {
			b.WriteString(emptySet)
			continue
		}
		cargo, ok := values.Get(attrstore.Key(subj.ID(), sign.ID()))
		if !ok {
			b.WriteString(emptySet)
			continue
		}
		b.WriteString(formatCargo(cargo))
	}

	if seq := subj.Sequence(); len(seq) > 0 {
		b.WriteString(" [")
		for _, id := range seq {
			b.WriteByte(' ')
			b.WriteString(gl.LexOrID(g.Recover(id), dict))
		}
		b.WriteString(" ]")
	}
	b.WriteString(" .")
	return b.String()
}

func formatCargo(c attrstore.Cargo) string {
	switch c.Kind() {
	case attrstore.KindInt:
		v, _ := c.Int()
		return strconv.FormatInt(v, 10)
	case attrstore.KindFloat:
		v, _ := c.Float()
		return strconv.FormatFloat(v, 'g', -1, 64)
	case attrstore.KindString:
		v, _ := c.String()
		return fmt.Sprintf("%q", v)
	default:
		return emptySet
	}
}
