package ast

import "github.com/Sumatoshi-tech/bslcheck/pkg/safeconv"

// Symbol is an interned string handle, unique within one build session.
type Symbol uint32

// Interner deduplicates identifier and literal text into symbols. One
// interner belongs to one build session; symbols from different sessions are
// not comparable.
type Interner struct {
	lookup map[string]Symbol
	texts  []string
	bytes  int
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{lookup: make(map[string]Symbol)}
}

// Intern returns the symbol for text, allocating one on first sight.
func (in *Interner) Intern(text string) Symbol {
	if sym, ok := in.lookup[text]; ok {
		return sym
	}

	sym := Symbol(safeconv.MustIntToUint32(len(in.texts)))
	in.lookup[text] = sym
	in.texts = append(in.texts, text)
	in.bytes += len(text)

	return sym
}

// Resolve returns the text behind a symbol in O(1).
func (in *Interner) Resolve(sym Symbol) string {
	return in.texts[sym]
}

// Count returns the number of distinct symbols.
func (in *Interner) Count() int {
	return len(in.texts)
}

// Bytes returns the total bytes of interned text.
func (in *Interner) Bytes() int {
	return in.bytes
}

// Clone returns an independent copy of the interner.
func (in *Interner) Clone() *Interner {
	lookup := make(map[string]Symbol, len(in.lookup))
	for k, v := range in.lookup {
		lookup[k] = v
	}

	texts := make([]string, len(in.texts))
	copy(texts, in.texts)

	return &Interner{lookup: lookup, texts: texts, bytes: in.bytes}
}
