package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint hashes the logical identity of a request: operation name, target
// path, and body. JSON bodies are canonicalized first so that key order never
// changes the hash; non-JSON bodies are hashed as-is. Used to detect reuse of
// one idempotency key across different requests; not a secret, so no
// constant-time comparison is needed.
func Fingerprint(operation, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(operation))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(canonicalBody(body))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalBody re-encodes JSON through a generic value so object keys come
// out sorted (encoding/json sorts map keys). Anything unparsable is returned
// verbatim.
func canonicalBody(body []byte) []byte {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return body
	}
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return out
}
