package manuscript

// WordFrequency pairs a word with how often it appears.
type WordFrequency struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// VocabularyMetrics summarizes word usage across a chapter.
type VocabularyMetrics struct {
	TotalWords       int             `json:"total_words"`
	UniqueWords      int             `json:"unique_words"`
	LexicalDiversity float64         `json:"lexical_diversity"`
	OverusedWords    []WordFrequency `json:"overused_words,omitempty"`
	RareWords        []string        `json:"rare_words,omitempty"`
}

// SyntaxMetrics summarizes sentence construction.
type SyntaxMetrics struct {
	SentenceCount     int     `json:"sentence_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	LongestSentence   int     `json:"longest_sentence"`
	ShortestSentence  int     `json:"shortest_sentence"`
	DialogueRatio     float64 `json:"dialogue_ratio"`
	QuestionRatio     float64 `json:"question_ratio"`
	ExclamationRatio  float64 `json:"exclamation_ratio"`
	ReadabilityGrade  int     `json:"readability_grade"`
}

// RhythmMetrics summarizes prose cadence.
type RhythmMetrics struct {
	PunctuationDensity float64 `json:"punctuation_density"`
	ClausesPerSentence float64 `json:"clauses_per_sentence"`
}

// StyleInstance is one flagged occurrence with its location.
type StyleInstance struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// RepeatedPhrase is a phrase appearing at several offsets.
type RepeatedPhrase struct {
	Phrase  string `json:"phrase"`
	Count   int    `json:"count"`
	Offsets []int  `json:"offsets"`
}

// StyleFlags collects the stylistic warnings with their instances.
type StyleFlags struct {
	PassiveVoiceRatio float64          `json:"passive_voice_ratio"`
	PassiveInstances  []StyleInstance  `json:"passive_instances,omitempty"`
	AdverbDensity     float64          `json:"adverb_density"`
	AdverbInstances   []StyleInstance  `json:"adverb_instances,omitempty"`
	FilterWordDensity float64          `json:"filter_word_density"`
	FilterInstances   []StyleInstance  `json:"filter_instances,omitempty"`
	ClicheCount       int              `json:"cliche_count"`
	ClicheInstances   []StyleInstance  `json:"cliche_instances,omitempty"`
	RepeatedPhrases   []RepeatedPhrase `json:"repeated_phrases,omitempty"`
}

// StyleFingerprint is the style analyzer's complete output. All fields are
// pure functions of the chapter text and its structural fingerprint.
type StyleFingerprint struct {
	ChapterID  string            `json:"chapter_id"`
	Vocabulary VocabularyMetrics `json:"vocabulary"`
	Syntax     SyntaxMetrics     `json:"syntax"`
	Rhythm     RhythmMetrics     `json:"rhythm"`
	Flags      StyleFlags        `json:"flags"`
}
