// Package binary serializes the type section of a module from the layout
// computed by typeorder.
package binary

// AppendUleb128 appends the unsigned LEB128 encoding of v.
func AppendUleb128(out []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// AppendSleb128 appends the signed LEB128 encoding of v.
func AppendSleb128(out []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}
