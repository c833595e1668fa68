package entity

import (
	"regexp"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

const nameRun = `[A-Z][\w'’-]+(?:\s+[A-Z][\w'’-]+)?`

// aliasPattern binds an explicit alias declaration in the prose. The
// canonical group is the formal name; the alias group is the byname.
type aliasPattern struct {
	re        *regexp.Regexp
	canonical int // submatch index of the formal name
	alias     int // submatch index of the byname
}

var aliasPatterns = []aliasPattern{
	// "Voss, known as the Grey Fox" / "Voss, also known as Fox"
	{regexp.MustCompile(`(` + nameRun + `),\s+(?:also\s+)?known as (?:the\s+)?(` + nameRun + `)`), 1, 2},
	// "the Grey Fox, whose real name was Voss"
	{regexp.MustCompile(`(` + nameRun + `),\s+whose real name (?:was|is) (` + nameRun + `)`), 2, 1},
	// "Voss, called the Grey Fox by ..."
	{regexp.MustCompile(`(` + nameRun + `),\s+called (?:the\s+)?(` + nameRun + `)`), 1, 2},
}

// bindAliases applies the alias declarations to the consolidated groups.
// Both names bind to one group: when both already exist the alias group
// folds into the canonical one, otherwise the missing name is recorded as
// an alias on the surviving group.
func (a *Analyzer) bindAliases(chapter string, groups map[string]*group) {
	for _, p := range aliasPatterns {
		for _, m := range p.re.FindAllStringSubmatch(chapter, -1) {
			canonical, alias := m[p.canonical], m[p.alias]
			ckey := manuscript.NormalizeName(canonical)
			akey := manuscript.NormalizeName(alias)
			if ckey == akey {
				continue
			}
			cg, ag := groups[ckey], groups[akey]
			switch {
			case cg != nil && ag != nil:
				absorb(cg, ag)
				cg.aliases = append(cg.aliases, ag.display)
				delete(groups, akey)
			case cg != nil:
				cg.aliases = append(cg.aliases, alias)
			case ag != nil:
				ag.aliases = append(ag.aliases, canonical)
			}
		}
	}
}
