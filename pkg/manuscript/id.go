package manuscript

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Identifiers are content-derived. Hashing the normalized inputs keeps ids
// stable across runs and across machines, so merged graphs and cached
// snapshots agree without any shared counter.

// NormalizeName folds an entity name for identity purposes: lowercased,
// trimmed, with internal whitespace runs collapsed to single spaces.
// Display names keep their original casing; only identity is folded.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func hashID(prefix string, parts ...string) string {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%s_%016x", prefix, h.Sum64())
}

// EntityID derives the canonical node id from a normalized name and type.
// Two mentions of "Detective Voss" and "detective  voss" map to one node.
func EntityID(name string, t EntityType) string {
	return hashID("ent", NormalizeName(name), string(t))
}

// EdgeID derives the edge id from an unordered pair of node ids. The pair
// is sorted first, so EdgeID(a, b) == EdgeID(b, a).
func EdgeID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return hashID("rel", a, b)
}

// PromiseID derives a plot-promise id from its origin chapter, kind and
// quote. Hashing the quote rather than the offset keeps the id stable when
// unrelated text shifts the promise around.
func PromiseID(chapterID string, kind PromiseKind, quote string) string {
	return hashID("prm", chapterID, string(kind), NormalizeName(quote))
}

// ChainID derives a causal-chain id from its chapter and both quotes.
func ChainID(chapterID, causeQuote, effectQuote string) string {
	return hashID("chn", chapterID, NormalizeName(causeQuote), NormalizeName(effectQuote))
}

// SceneID names a scene by chapter and position.
func SceneID(chapterID string, index int) string {
	return fmt.Sprintf("%s_scene_%d", chapterID, index)
}

// SectionID names a heatmap section by chapter and position.
func SectionID(chapterID string, index int) string {
	return fmt.Sprintf("%s_sec_%d", chapterID, index)
}

// ContentHash fingerprints chapter text. Analyses carry it so identical
// content can be recognized without re-running the pipeline.
func ContentHash(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return fmt.Sprintf("%016x", h.Sum64())
}
