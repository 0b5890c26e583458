// Package format parses aura's compact argument/return format strings into
// typed fields and computes their wire length, mirroring aura_fmt_len and
// aura_fmt_pretty_print from the source core.
package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the wire type of a single parsed field.
type Kind int

const (
	U8 Kind = iota
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	Bin // fixed-length opaque block, token s<N>. or b<N>.
	Buf // nested buffer handle, token 'b' (bare, no length prefix)
)

// Field is one element of a parsed format string.
type Field struct {
	Kind Kind
	// Len is the block length in bytes for Bin fields; zero otherwise.
	Len int
}

// Size returns the wire size in bytes of a single field of this kind.
func (f Field) Size() int {
	switch f.Kind {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	case U64, I64:
		return 8
	case Bin:
		return f.Len
	case Buf:
		return 8 // buffer handles are passed as an 8-byte opaque reference
	}
	return 0
}

// Format is a parsed format string: its fields, total byte length, and a
// human-readable pretty-printed form for diagnostics.
type Format struct {
	Raw     string
	Fields  []Field
	Len     int
	NumArgs int
	Pretty  string
}

// Parse parses a format string per spec §4.2. An empty string is valid and
// denotes "no arguments" (arity 0, length 0) — the case that marks an
// Object as an event rather than a method.
//
// Token grammar:
//
//	1  u8     6  i8     2  u16   7  i16
//	3  u32    8  i32    4  u64   9  i64
//	b  nested buffer handle
//	s<N>. / b<N>. fixed-length binary block of N bytes, '.' required
//
// A malformed token returns a non-nil error; callers (the export table) use
// this to mark the owning Object invalid rather than propagate the error
// further, matching the source's "valid=false" discipline.
func Parse(raw string) (*Format, error) {
	f := &Format{Raw: raw}
	if raw == "" {
		return f, nil
	}

	var pretty []string
	i := 0
	for i < len(raw) {
		tok := raw[i]
		switch tok {
		case '1':
			f.Fields = append(f.Fields, Field{Kind: U8})
			pretty = append(pretty, "u8")
			i++
		case '6':
			f.Fields = append(f.Fields, Field{Kind: I8})
			pretty = append(pretty, "i8")
			i++
		case '2':
			f.Fields = append(f.Fields, Field{Kind: U16})
			pretty = append(pretty, "u16")
			i++
		case '7':
			f.Fields = append(f.Fields, Field{Kind: I16})
			pretty = append(pretty, "i16")
			i++
		case '3':
			f.Fields = append(f.Fields, Field{Kind: U32})
			pretty = append(pretty, "u32")
			i++
		case '8':
			f.Fields = append(f.Fields, Field{Kind: I32})
			pretty = append(pretty, "i32")
			i++
		case '4':
			f.Fields = append(f.Fields, Field{Kind: U64})
			pretty = append(pretty, "u64")
			i++
		case '9':
			f.Fields = append(f.Fields, Field{Kind: I64})
			pretty = append(pretty, "i64")
			i++
		case 'b', 's':
			// Could be a bare 'b' (nested buffer handle) or a 's<N>.'/'b<N>.'
			// fixed-length block. Disambiguate by checking for digits next.
			j := i + 1
			start := j
			for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
				j++
			}
			if j == start {
				// No digits followed: bare 'b' is a nested buffer handle.
				// Bare 's' is not a valid token on its own.
				if tok == 'b' {
					f.Fields = append(f.Fields, Field{Kind: Buf})
					pretty = append(pretty, "buf")
					i++
					continue
				}
				return nil, fmt.Errorf("format: bare 's' token with no length at offset %d", i)
			}
			if j >= len(raw) || raw[j] != '.' {
				return nil, fmt.Errorf("format: block token at offset %d missing terminating '.'", i)
			}
			n, err := strconv.Atoi(raw[start:j])
			if err != nil {
				return nil, fmt.Errorf("format: bad block length at offset %d: %w", i, err)
			}
			f.Fields = append(f.Fields, Field{Kind: Bin, Len: n})
			pretty = append(pretty, fmt.Sprintf("bin[%d]", n))
			i = j + 1
		default:
			return nil, fmt.Errorf("format: unrecognized token %q at offset %d", string(tok), i)
		}
	}

	for _, fl := range f.Fields {
		f.Len += fl.Size()
	}
	f.NumArgs = len(f.Fields)
	f.Pretty = strings.Join(pretty, ", ")
	return f, nil
}

// MustParse parses raw and panics on error. Only safe for format strings
// that are known constants (tests, examples) — the export table must never
// call this, since a malformed peer-supplied format is a recoverable
// FORMAT-INVALID, not a programmer error.
func MustParse(raw string) *Format {
	f, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return f
}
