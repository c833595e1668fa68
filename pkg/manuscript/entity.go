package manuscript

import "sort"

// EntityType categorizes a recognized entity.
type EntityType string

const (
	EntityCharacter EntityType = "character"
	EntityLocation  EntityType = "location"
	EntityObject    EntityType = "object"
	EntityFaction   EntityType = "faction"
	EntityConcept   EntityType = "concept"
)

// RelationType labels an edge between two entities. The zero-information
// type is RelationInteracts; all others are specific and may only replace
// it, never the reverse.
type RelationType string

const (
	RelationInteracts RelationType = "interacts"
	RelationLocatedAt RelationType = "located_at"
	RelationPossesses RelationType = "possesses"
	RelationRelatedTo RelationType = "related_to"
	RelationOpposes   RelationType = "opposes"
	RelationAlliedTo  RelationType = "allied_with"
)

// Specific reports whether the type carries more information than the
// generic co-occurrence relation.
func (r RelationType) Specific() bool {
	return r != RelationInteracts && r != ""
}

// Mention records one occurrence of an entity in the text.
type Mention struct {
	Offset    int    `json:"offset"`
	ChapterID string `json:"chapter_id"`
}

// EntityNode is one entity in the graph arena. Its ID derives
// deterministically from the normalized name and type, so repeated analysis
// of the same text always yields the same node identities.
type EntityNode struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         EntityType          `json:"type"`
	Aliases      []string            `json:"aliases,omitempty"`
	FirstMention int                 `json:"first_mention"`
	MentionCount int                 `json:"mention_count"`
	Mentions     []Mention           `json:"mentions,omitempty"`
	Attributes   map[string][]string `json:"attributes,omitempty"`
}

// AddAlias records an alias, keeping the set sorted and duplicate-free.
// The canonical name itself is never stored as an alias.
func (n *EntityNode) AddAlias(alias string) {
	if alias == "" || alias == n.Name {
		return
	}
	for _, a := range n.Aliases {
		if a == alias {
			return
		}
	}
	n.Aliases = append(n.Aliases, alias)
	sort.Strings(n.Aliases)
}

// AddAttribute appends an observed value under the attribute name.
func (n *EntityNode) AddAttribute(name, value string) {
	if name == "" || value == "" {
		return
	}
	if n.Attributes == nil {
		n.Attributes = make(map[string][]string)
	}
	for _, v := range n.Attributes[name] {
		if v == value {
			return
		}
	}
	n.Attributes[name] = append(n.Attributes[name], value)
}

// EvidenceCap bounds the evidence quotes kept per edge.
const EvidenceCap = 10

// EntityEdge connects an unordered pair of nodes. Source and Target are
// stored in lexical order so each pair maps to exactly one edge.
type EntityEdge struct {
	ID            string       `json:"id"`
	Source        string       `json:"source"`
	Target        string       `json:"target"`
	Type          RelationType `json:"type"`
	CoOccurrences int          `json:"co_occurrences"`
	Sentiment     float64      `json:"sentiment"`
	Chapters      []string     `json:"chapters,omitempty"`
	Evidence      []string     `json:"evidence,omitempty"`
}

// Upgrade applies a candidate relation type under the upgrade-only rule: a
// specific type replaces the generic interacts type and is otherwise kept.
// Generic evidence never downgrades a specific edge.
func (e *EntityEdge) Upgrade(candidate RelationType) {
	if !candidate.Specific() {
		return
	}
	if !e.Type.Specific() {
		e.Type = candidate
	}
}

// AddChapter records the chapter in the edge's sorted chapter set.
func (e *EntityEdge) AddChapter(chapterID string) {
	if chapterID == "" {
		return
	}
	for _, c := range e.Chapters {
		if c == chapterID {
			return
		}
	}
	e.Chapters = append(e.Chapters, chapterID)
	sort.Strings(e.Chapters)
}

// AddEvidence appends a supporting quote, dropping it once the cap is hit.
func (e *EntityEdge) AddEvidence(quote string) {
	if quote == "" || len(e.Evidence) >= EvidenceCap {
		return
	}
	e.Evidence = append(e.Evidence, quote)
}

// EntityGraph is an arena of nodes indexed by id plus an edge list keyed by
// the sorted id pair. Edges reference nodes by id only, never by pointer.
type EntityGraph struct {
	Nodes map[string]*EntityNode `json:"nodes"`
	Edges map[string]*EntityEdge `json:"edges"`
}

// NewEntityGraph returns an empty graph ready for inserts.
func NewEntityGraph() *EntityGraph {
	return &EntityGraph{
		Nodes: make(map[string]*EntityNode),
		Edges: make(map[string]*EntityEdge),
	}
}

// Node returns the node with the given id, or nil.
func (g *EntityGraph) Node(id string) *EntityNode {
	if g == nil {
		return nil
	}
	return g.Nodes[id]
}

// EdgeBetween returns the edge joining two node ids, or nil.
func (g *EntityGraph) EdgeBetween(a, b string) *EntityEdge {
	if g == nil {
		return nil
	}
	return g.Edges[EdgeID(a, b)]
}

// NodesByMentions returns the nodes sorted by mention count descending,
// ties broken by id so ordering is reproducible.
func (g *EntityGraph) NodesByMentions() []*EntityNode {
	if g == nil {
		return nil
	}
	out := make([]*EntityNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MentionCount != out[j].MentionCount {
			return out[i].MentionCount > out[j].MentionCount
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EdgesByWeight returns edges sorted by co-occurrence count descending,
// ties broken by id.
func (g *EntityGraph) EdgesByWeight() []*EntityEdge {
	if g == nil {
		return nil
	}
	out := make([]*EntityEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CoOccurrences != out[j].CoOccurrences {
			return out[i].CoOccurrences > out[j].CoOccurrences
		}
		return out[i].ID < out[j].ID
	})
	return out
}
