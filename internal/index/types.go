// Package index maintains the in-memory record index: a uniform, immutable
// projection of the archive's entity, document and news collections.
// Rebuilds install a fresh snapshot atomically so in-flight searches always
// observe one consistent version.
package index

import (
	"strings"
	"time"

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// SourceType is the category of collection a record was projected from.
type SourceType string

const (
	// SourceEntity covers people and organization records.
	SourceEntity SourceType = "entity"
	// SourceDocument covers archived documents.
	SourceDocument SourceType = "document"
	// SourceNews covers news articles.
	SourceNews SourceType = "news"
)

// AllSources lists every source type in ranking priority order.
var AllSources = []SourceType{SourceEntity, SourceDocument, SourceNews}

// Valid reports whether s is one of the enumerated source types.
func (s SourceType) Valid() bool {
	switch s {
	case SourceEntity, SourceDocument, SourceNews:
		return true
	}
	return false
}

// Priority returns the tie-break rank for equal-score results.
// Lower ranks first: entity > document > news.
func (s SourceType) Priority() int {
	switch s {
	case SourceEntity:
		return 0
	case SourceDocument:
		return 1
	case SourceNews:
		return 2
	default:
		return 3
	}
}

// ParseFields converts the boundary-level fields parameter
// (all|entities|documents|news) into a set of source types.
func ParseFields(fields string) ([]SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(fields)) {
	case "", "all":
		return AllSources, nil
	case "entities":
		return []SourceType{SourceEntity}, nil
	case "documents":
		return []SourceType{SourceDocument}, nil
	case "news":
		return []SourceType{SourceNews}, nil
	default:
		return nil, archerr.UnknownSource(fields)
	}
}

// Facet attribute keys counted by the ranker. source_type itself is faceted
// separately since it is not stored in Attributes.
const (
	AttrDocType    = "doc_type"
	AttrSource     = "source"
	AttrEntityType = "entity_type"
)

// FacetAttributeKeys are the attribute keys included in facet counts.
var FacetAttributeKeys = []string{AttrDocType, AttrSource, AttrEntityType}

// Record is the uniform searchable projection of one underlying
// entity, document or article. Records are immutable once indexed.
type Record struct {
	// ID is an opaque stable identifier, unique within its source type.
	ID string

	// Source is the collection this record was projected from.
	Source SourceType

	// PrimaryText is the main matchable string (name, title, headline).
	PrimaryText string

	// SecondaryTexts are additional matchable strings (aliases, filenames,
	// excerpt text). Order is preserved for display only.
	SecondaryTexts []string

	// Attributes maps facet keys to a single string value.
	Attributes map[string]string

	// Timestamp is the optional date used for range filtering. Records
	// without a timestamp are excluded by any date filter but remain
	// eligible for unfiltered queries.
	Timestamp *time.Time
}

// Texts returns the primary text followed by all secondary texts.
func (r *Record) Texts() []string {
	out := make([]string, 0, 1+len(r.SecondaryTexts))
	out = append(out, r.PrimaryText)
	out = append(out, r.SecondaryTexts...)
	return out
}

// Key returns the (source, id) pair that uniquely identifies the record.
func (r *Record) Key() string {
	return string(r.Source) + "/" + r.ID
}

// Filters narrows a record scan by attribute equality and timestamp range.
// Unknown attribute keys are ignored rather than rejected.
type Filters struct {
	Attributes map[string]string
	DateStart  *time.Time
	DateEnd    *time.Time
}

// Empty reports whether no filter constraints are set.
func (f Filters) Empty() bool {
	return len(f.Attributes) == 0 && f.DateStart == nil && f.DateEnd == nil
}

// hasDateRange reports whether any timestamp constraint is set.
func (f Filters) hasDateRange() bool {
	return f.DateStart != nil || f.DateEnd != nil
}

// NameEntry is one autocomplete candidate drawn from record names.
type NameEntry struct {
	// Text is the display name or alias.
	Text string

	// Source is the owning record's source type.
	Source SourceType

	// RecordID is the owning record's ID.
	RecordID string

	// Alias is true when the entry is a known alias rather than the
	// record's primary name.
	Alias bool
}
