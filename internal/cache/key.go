package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// noParams disambiguates "no parameters" from an empty collection in
// the serialized key material.
const noParams = "none"

// ComputeKey derives the cache key for a query and its positional
// parameters. The derivation is deterministic: parameters serialize to
// canonical JSON (slice order preserved, map keys sorted by
// encoding/json), and the digest is SHA-256 of "query:params" as hex.
//
// A parameter that cannot be serialized is an error; an unstable key
// would alias distinct queries and replay the wrong results.
func ComputeKey(query string, params []any) (string, error) {
	serialized := noParams
	if len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("serialize query params for cache key: %w", err)
		}
		serialized = string(b)
	}

	sum := sha256.Sum256([]byte(query + ":" + serialized))
	return hex.EncodeToString(sum[:]), nil
}
