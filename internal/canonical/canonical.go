// Package canonical is the single deterministic encoder used for digest
// computation and persisted artifact bytes. General-purpose JSON output
// elsewhere may do whatever it likes; bytes that get digested go
// through here, so identical inputs always produce identical bytes and
// identical digests.
//
// Encoding rules:
//   - object keys sorted (all keys in this codebase are ASCII)
//   - no HTML escaping (< > & stay literal)
//   - strings NFC-normalized
//   - numbers re-emitted exactly as encoding/json formats them
//     (shortest round-trip form, so formatting is fixed)
//   - no embedded "now" timestamps: callers only encode values derived
//     from input content
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// Marshal serializes v into canonical bytes. v is anything
// encoding/json can marshal; struct tags are honored.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "canonical: marshal")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, eris.Wrap(err, "canonical: decode intermediate")
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(string(val))
	case string:
		encodeString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encodeValue(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return eris.New(fmt.Sprintf("canonical: unsupported value type %T", v))
	}
	return nil
}

// encodeString writes an NFC-normalized JSON string escaping only what
// JSON requires: quote, backslash, and control characters.
func encodeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
