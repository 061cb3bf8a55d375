// Package domain defines the data types shared across the application: wiki
// documents flowing from the corpus and the crawler, and the character
// relationship graph produced by the LLM. Documents are plain records with
// explicitly optional fields rather than loosely-typed maps, so call sites
// never need defensive key probing.
package domain

// Document source values.
const (
	SourceWeb     = "web"
	SourceDataset = "dataset"
)

// Document type values.
const (
	TypeMain          = "main"
	TypeCharacterList = "character_list"
	TypeCharacter     = "character"
)

// ImageRef is an image discovered in a document: its URL (or a raw wiki file
// reference when no URL is known), the alt text, and a short snippet of
// surrounding text that helps the LLM judge what the image shows.
type ImageRef struct {
	URL     string `json:"url"`
	Alt     string `json:"alt,omitempty"`
	Context string `json:"context,omitempty"`
}

// Document is a single wiki article, either loaded from the corpus or fetched
// from the web. Title and Text may be empty; consumers treat missing text as
// an empty string. A Document is immutable once produced and is identified
// within a corpus by its integer position, not by any field.
type Document struct {
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	ImageURLs []ImageRef `json:"image_urls,omitempty"`
	Type      string     `json:"type,omitempty"`
	Source    string     `json:"source,omitempty"`
	URL       string     `json:"url,omitempty"`
}

// Character is a node in the relationship graph. ImageSrc is nil when no
// portrait could be attributed to the character.
type Character struct {
	Name        string  `json:"name"`
	ImageSrc    *string `json:"image_src"`
	Description string  `json:"description"`
}

// Relation is a directed, labeled edge: From relates to To as described by
// Relation (e.g. "과거 동료였던 적대 관계").
type Relation struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Graph is the full character-relationship graph for one work.
type Graph struct {
	Characters    []Character `json:"characters"`
	Relationships []Relation  `json:"relationships"`
}
