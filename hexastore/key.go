package hexastore

import "bytes"

const keySep = "::"

// escape doubles backslashes and escapes the "::" separator so a term
// value containing either can never be mistaken for a key boundary.
func escape(v string) string {
	if !bytes.ContainsAny([]byte(v), "\\:") {
		return v
	}
	var buf bytes.Buffer
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' || v[i] == ':' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(v[i])
	}
	return buf.String()
}

// key builds the storage key for one permutation of a fully-bound triple:
// <prefix>::<perm>::<v1>::<v2>::<v3>.
func (s *Store) key(perm permutation, v1, v2, v3 string) []byte {
	buf := bytes.Buffer{}
	buf.WriteString(s.prefix)
	buf.WriteString(keySep)
	buf.WriteString(string(perm))
	buf.WriteString(keySep)
	buf.WriteString(escape(v1))
	buf.WriteString(keySep)
	buf.WriteString(escape(v2))
	buf.WriteString(keySep)
	buf.WriteString(escape(v3))
	return buf.Bytes()
}

// scanPrefix builds the prefix <prefix>::<perm>::<bound…> for a pattern
// scan, stopping at the first unbound value so the prefix covers every
// entry sharing the bound leading terms.
func (s *Store) scanPrefix(perm permutation, bound ...string) []byte {
	buf := bytes.Buffer{}
	buf.WriteString(s.prefix)
	buf.WriteString(keySep)
	buf.WriteString(string(perm))
	for _, v := range bound {
		buf.WriteString(keySep)
		buf.WriteString(escape(v))
	}
	buf.WriteString(keySep)
	return buf.Bytes()
}

// scanUpperBound returns an inclusive stop key, safe to pass to
// kv.Backend.Range: prefix with a trailing 0xFF byte. escape passes every
// byte other than '\\' and ':' through unchanged, so the bound sorts after
// every key under prefix whose term text is valid UTF-8 (which never
// contains 0xFF); a term holding a raw 0xFF byte can sort past it.
func scanUpperBound(prefix []byte) []byte {
	hi := make([]byte, len(prefix)+1)
	copy(hi, prefix)
	hi[len(prefix)] = 0xFF
	return hi
}
