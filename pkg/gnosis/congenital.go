// Congenital concepts are the fixed vocabulary Gnosis is born with: every
// identity below is wired into the running process before any caller can
// touch it, every one is IMMUTABLE and IMMORTAL, and every one carries the
// exact numeric id its reference implementation assigned so that a dump
// produced by one process remains meaningful to another.
//
// © 2025 gnosis authors. MIT License.
package gnosis

import "github.com/Voskan/gnosis/internal/codec"

// Congenital identities, by name, as fixed at process birth. The numeric
// values are load-bearing: they were originally drawn once from a random
// 24-bit pool and then frozen, and changing any of them breaks
// interoperability with a saved syndrome/sequence dump.
const (
	ABSORB    codec.Identity = 6739698
	ADJECTIVE codec.Identity = 4087907
	AND       codec.Identity = 374564
	ATTRIBUTE codec.Identity = 15039847
	CLEAR     codec.Identity = 2832983
	DECR      codec.Identity = 4930630
	DIFF      codec.Identity = 8699352
	DIV       codec.Identity = 11704920
	EXCL      codec.Identity = 2701626
	EXPL      codec.Identity = 13421964
	FORGET    codec.Identity = 4735681
	FORK      codec.Identity = 11435494
	FUNCTION  codec.Identity = 15354407
	HERITABLE codec.Identity = 12454336
	IF        codec.Identity = 6662231
	IMMORTAL  codec.Identity = 12888623
	IMMUTABLE codec.Identity = 8325804
	INCL      codec.Identity = 14665902
	INCR      codec.Identity = 7036504
	INTEGER   codec.Identity = 10608339
	LET       codec.Identity = 9276241
	MULT      codec.Identity = 15984293
	MUTEX     codec.Identity = 1484405
	NAME      codec.Identity = 2327283
	NOUN      codec.Identity = 9807832
	OPERATOR  codec.Identity = 10638075
	OR        codec.Identity = 606745
	POP       codec.Identity = 3107661
	PROD      codec.Identity = 6264904
	PROPER    codec.Identity = 556209
	QUOT      codec.Identity = 15636372
	RATIONAL  codec.Identity = 7644169
	REF       codec.Identity = 2951283
	ROUTINE   codec.Identity = 8222403
	RULE      codec.Identity = 5157699
	RUN       codec.Identity = 4527056
	SEQ       codec.Identity = 532165
	SEQUENCE  codec.Identity = 2215104
	STRING    codec.Identity = 5853461
	SUM       codec.Identity = 3491838
	SWAP      codec.Identity = 15599439
	SYN       codec.Identity = 2527987
	VAL       codec.Identity = 12131759
	VERB      codec.Identity = 8829778
)

// congenitalNames maps every congenital identity back to its vocabulary
// name, used to seed the glossary and to render diagnostics.
var congenitalNames = map[codec.Identity]string{
	ABSORB: "ABSORB", ADJECTIVE: "ADJECTIVE", AND: "AND", ATTRIBUTE: "ATTRIBUTE",
	CLEAR: "CLEAR", DECR: "DECR", DIFF: "DIFF", DIV: "DIV", EXCL: "EXCL",
	EXPL: "EXPL", FORGET: "FORGET", FORK: "FORK", FUNCTION: "FUNCTION",
	HERITABLE: "HERITABLE", IF: "IF", IMMORTAL: "IMMORTAL", IMMUTABLE: "IMMUTABLE",
	INCL: "INCL", INCR: "INCR", INTEGER: "INTEGER", LET: "LET", MULT: "MULT",
	MUTEX: "MUTEX", NAME: "NAME", NOUN: "NOUN", OPERATOR: "OPERATOR", OR: "OR",
	POP: "POP", PROD: "PROD", PROPER: "PROPER", QUOT: "QUOT", RATIONAL: "RATIONAL",
	REF: "REF", ROUTINE: "ROUTINE", RULE: "RULE", RUN: "RUN", SEQ: "SEQ",
	SEQUENCE: "SEQUENCE", STRING: "STRING", SUM: "SUM", SWAP: "SWAP", SYN: "SYN",
	VAL: "VAL", VERB: "VERB",
}

// congenitalIdentities lists every congenital id, in map iteration
// (unspecified) order. New
// is responsible for instantiating each of them, frozen, before it hands
// the Gnosis handle to a caller.
var congenitalIdentities = func() []codec.Identity {
	ids := make([]codec.Identity, 0, len(congenitalNames))
	for id := range congenitalNames {
		ids = append(ids, id)
	}
	return ids
}()

// IsCongenital reports whether id names one of the fixed vocabulary
// concepts.
func IsCongenital(id codec.Identity) bool {
	_, ok := congenitalNames[id]
	return ok
}

// CongenitalName returns the vocabulary name for id and true, or ("", false)
// if id is not congenital.
func CongenitalName(id codec.Identity) (string, bool) {
	name, ok := congenitalNames[id]
	return name, ok
}
