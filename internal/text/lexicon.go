package text

import "strings"

// Set is a lowercase membership set for lexicon lookups.
type Set map[string]struct{}

// NewSet builds a Set from words, lowercasing each.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
	return s
}

// Has reports membership. The query must already be lowercase.
func (s Set) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// Add extends the set in place, lowercasing each word.
func (s Set) Add(words ...string) {
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
}

// Clone returns an independent copy, so callers can extend a package
// lexicon without mutating it.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for w := range s {
		out[w] = struct{}{}
	}
	return out
}

// Stopwords are high-frequency function words excluded from vocabulary
// statistics and entity candidates.
var Stopwords = NewSet(
	"a", "an", "the", "and", "or", "but", "nor", "so", "yet", "for",
	"of", "in", "on", "at", "to", "from", "by", "with", "about", "into",
	"over", "under", "through", "between", "out", "up", "down", "off",
	"he", "she", "it", "they", "them", "him", "her", "his", "hers", "its",
	"their", "theirs", "i", "me", "my", "mine", "we", "us", "our", "ours",
	"you", "your", "yours", "who", "whom", "whose", "which", "that", "this",
	"these", "those", "is", "am", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did", "will", "would", "shall",
	"should", "can", "could", "may", "might", "must", "not", "no", "as",
	"if", "then", "than", "when", "where", "while", "because", "there",
	"here", "all", "each", "both", "few", "more", "most", "other", "some",
	"such", "only", "own", "same", "too", "very", "just", "now", "one",
	"said", "what", "how",
)

// AttributionVerbs mark dialogue tags ("...", she said).
var AttributionVerbs = NewSet(
	"said", "asked", "replied", "answered", "whispered", "shouted",
	"muttered", "murmured", "called", "cried", "snapped", "hissed",
	"growled", "demanded", "added", "continued", "warned", "yelled",
	"breathed", "admitted", "agreed", "offered", "repeated", "insisted",
	"observed", "remarked", "began", "echoed", "stammered", "countered",
)

// PositiveWords and NegativeWords drive the coarse sentiment score.
var PositiveWords = NewSet(
	"love", "loved", "joy", "happy", "happiness", "smile", "smiled",
	"laugh", "laughed", "warm", "warmth", "gentle", "kind", "kindness",
	"hope", "hopeful", "bright", "beautiful", "wonderful", "delight",
	"delighted", "pleased", "grateful", "relief", "relieved", "safe",
	"calm", "peaceful", "triumph", "victory", "embrace", "trust",
	"friend", "comfort", "tender", "sweet", "glad", "cheerful", "proud",
)

var NegativeWords = NewSet(
	"hate", "hated", "fear", "feared", "afraid", "terror", "terrified",
	"angry", "anger", "rage", "fury", "furious", "dread", "grief",
	"sorrow", "pain", "painful", "hurt", "cruel", "cold", "dark",
	"darkness", "death", "dead", "died", "kill", "killed", "blood",
	"scream", "screamed", "cry", "wept", "tears", "bitter", "despair",
	"hopeless", "enemy", "threat", "betrayed", "betrayal", "loss",
	"lonely", "alone", "broken", "wound", "wounded", "horror", "vile",
)

// TensionWords raise the local tension estimate independent of valence.
var TensionWords = NewSet(
	"suddenly", "scream", "screamed", "gun", "knife", "blade", "blood",
	"ran", "running", "chase", "chased", "fight", "fought", "struck",
	"slammed", "crashed", "exploded", "shattered", "grabbed", "lunged",
	"froze", "gasped", "panic", "desperate", "danger", "dangerous",
	"attack", "attacked", "trapped", "escape", "escaped", "dying",
	"threat", "terror", "afraid", "heartbeat", "pounding", "racing",
	"shot", "fired", "stumbled", "staggered",
)

// FilterWords distance the reader from the viewpoint character
// ("she saw the door open" vs "the door opened").
var FilterWords = NewSet(
	"saw", "see", "seen", "heard", "hear", "felt", "feel", "noticed",
	"watched", "watch", "seemed", "realized", "wondered", "thought",
	"knew", "decided", "looked", "observed", "recognized", "considered",
	"remembered", "supposed", "believed", "understood", "figured",
)

// IntrospectionVerbs mark interior monologue.
var IntrospectionVerbs = NewSet(
	"wondered", "thought", "realized", "remembered", "knew", "felt",
	"hoped", "feared", "wished", "imagined", "understood", "doubted",
	"suspected", "believed", "considered", "recalled", "regretted",
	"decided", "questioned",
)

// ActionVerbs mark physical movement and combat.
var ActionVerbs = NewSet(
	"ran", "run", "sprinted", "jumped", "leapt", "grabbed", "threw",
	"struck", "hit", "punched", "kicked", "slammed", "pushed", "pulled",
	"ducked", "dodged", "swung", "fired", "shot", "stabbed", "lunged",
	"charged", "climbed", "crawled", "dove", "rolled", "spun", "dashed",
	"sprang", "vaulted", "shoved", "hurled", "snatched", "seized",
	"bolted", "darted", "scrambled", "staggered", "stumbled",
)

// DescriptionWords mark sensory and spatial description.
var DescriptionWords = NewSet(
	"loomed", "sprawled", "gleamed", "glistened", "shimmered", "towered",
	"stretched", "draped", "hung", "stood", "sat", "nestled", "perched",
	"faded", "glowed", "flickered", "drifted", "scent", "smell", "aroma",
	"light", "shadow", "color", "colour", "gray", "grey", "golden",
	"crimson", "pale", "vast", "narrow", "ancient", "weathered", "ornate",
	"crumbling", "polished", "rough", "smooth", "misty", "distant",
)

// NonAdverbLY lists -ly words that are not adverbs, excluded from the
// adverb-density scan.
var NonAdverbLY = NewSet(
	"family", "only", "supply", "reply", "apply", "belly", "bully",
	"jelly", "folly", "rally", "tally", "ally", "holy", "ugly",
	"assembly", "monopoly", "butterfly", "firefly", "melancholy",
	"early", "likely", "lily", "italy", "billy", "sally", "molly",
	"lovely", "lonely", "friendly", "deadly", "elderly", "silly",
	"grisly", "burly", "surly", "curly",
)

// Cliches are stock phrases flagged verbatim (matched lowercase).
var Cliches = []string{
	"heart skipped a beat",
	"blood ran cold",
	"deafening silence",
	"time stood still",
	"piercing blue eyes",
	"heart pounded in her chest",
	"heart pounded in his chest",
	"let out a breath she didn't know she was holding",
	"let out a breath he didn't know he was holding",
	"shivers down her spine",
	"shivers down his spine",
	"a chill ran down",
	"white as a sheet",
	"crystal clear",
	"dead of night",
	"in the nick of time",
	"easier said than done",
	"against all odds",
	"every fiber of her being",
	"every fiber of his being",
	"breathed a sigh of relief",
	"eyes widened in shock",
	"without a second thought",
	"last thing she expected",
	"last thing he expected",
}
