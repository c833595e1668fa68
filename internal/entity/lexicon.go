package entity

import (
	"strings"

	"github.com/draftmind/manuscript/internal/text"
)

// titleAlt is the honorific alternation for the titled-name pass. Titles
// stay on the canonical name; the bare name becomes an alias.
const titleAlt = `Mr|Mrs|Ms|Dr|Lord|Lady|Sir|Dame|Captain|Commander|Professor|King|Queen|Prince|Princess|General|Colonel|Major|Sergeant|Father|Mother|Brother|Sister|Aunt|Uncle|Master|Saint`

// placeNounAlt closes the "the X <place>" location pattern over nouns that
// reliably name settings.
const placeNounAlt = `inn|tavern|castle|tower|keep|bridge|forest|woods|river|mountain|mountains|valley|village|town|city|harbor|harbour|port|road|street|alley|square|market|temple|church|cathedral|monastery|abbey|palace|manor|hall|gate|garden|courtyard|library|tunnel|pass|district|quarter|island|bay|cliff|moor|marsh|mill|farm|estate|academy|fortress`

// objectNounAlt closes the possessive object patterns over nouns that name
// significant props.
const objectNounAlt = `sword|blade|dagger|knife|crown|ring|amulet|pendant|locket|letter|map|key|book|tome|scroll|cloak|lantern|mirror|coin|chest|journal|diary|staff|wand|orb|gem|jewel|stone|medallion|compass|pistol|revolver|rifle|watch|necklace`

// extraStop holds stoplist entries beyond the shared stopword set:
// calendar terms, narrative-structure words, directions, and sentence
// openers that surface as false capitalized candidates.
var extraStop = text.NewSet(
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july",
	"august", "september", "october", "november", "december",
	"spring", "summer", "autumn", "fall", "winter",
	"morning", "afternoon", "evening", "night", "noon", "midnight", "dawn", "dusk",
	"today", "tomorrow", "yesterday",
	"moment", "moments", "minute", "minutes", "hour", "hours", "day", "days",
	"week", "weeks", "month", "months", "year", "years",
	"chapter", "part", "act", "scene", "section", "prologue", "epilogue",
	"interlude", "book", "volume",
	"north", "south", "east", "west",
	"then", "when", "while", "after", "before", "suddenly", "meanwhile",
	"later", "once", "now", "finally", "perhaps", "maybe", "still", "again",
	"soon", "never", "always", "everything", "nothing", "something", "someone",
	"everyone", "nobody", "anybody", "somewhere", "nowhere", "here", "there",
	"yes", "no", "oh", "well", "why", "what", "where", "how", "if", "because",
	"inside", "outside", "beyond", "across", "behind", "above", "below",
	// Bare honorifics; the titled pass captures them with the name attached.
	"mr", "mrs", "ms", "dr", "st", "jr", "sr", "prof", "capt", "sgt",
	"lt", "col", "gen", "rev", "madam", "miss",
)

// placeNouns mirrors placeNounAlt as a set, for the location suffix merge.
var placeNouns = text.NewSet(strings.Split(placeNounAlt, "|")...)

// stoplist is the full candidate filter: shared stopwords plus the
// extractor-specific entries.
func stoplist() text.Set {
	s := text.Stopwords.Clone()
	for w := range extraStop {
		s[w] = struct{}{}
	}
	return s
}
