package entity

import (
	"math/big"

	"github.com/spaolacci/murmur3"
)

// HashContent computes the TranslatedContent primary key: a 128-bit
// content hash of `original ++ targetLanguage`, rendered as decimal digits.
// Two calls with the same arguments MUST produce the same string, on any
// machine, forever -- this is the cache's only coordination point across
// concurrent workers and process restarts.
func HashContent(original, targetLanguage string) string {
	hi, lo := murmur3.Sum128([]byte(original + targetLanguage))

	// Render as one 128-bit decimal integer so the key is portable
	// across storage backends that normalize numeric strings.
	v := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	v.Or(v, new(big.Int).SetUint64(lo))
	return v.String()
}

// SummaryCacheHash computes the cache key for a summary of original,
// distinguishing it from a plain translation of the same text via the
// "Summary_" key prefix.
func SummaryCacheHash(original, targetLanguage string) string {
	return HashContent(SummaryCacheKeyPrefix+original, targetLanguage)
}
