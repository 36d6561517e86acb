package bleveindex

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"tonotes/model"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Keyword variants of the analyzed text fields, used for exact matches
// and for sorting by title.
const (
	fieldTitleKeyword   = "title_keyword"
	fieldContentKeyword = "content_keyword"

	keywordIgnoreAbove = 256
)

// indexedNote is the document handed to bleve. Field names follow the json
// tags.
type indexedNote struct {
	Title          string    `json:"title"`
	TitleKeyword   string    `json:"title_keyword"`
	Content        string    `json:"content"`
	ContentKeyword string    `json:"content_keyword,omitempty"`
	Tags           []string  `json:"tags"`
	Owner          string    `json:"owner"`
	Collaborators  []string  `json:"collaborators"`
	FolderID       string    `json:"folder,omitempty"`
	IsPinned       bool      `json:"isPinned"`
	Images         []string  `json:"images,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toIndexed(doc model.SearchDocument) indexedNote {
	n := indexedNote{
		Title:         doc.Title,
		TitleKeyword:  strings.ToLower(doc.Title),
		Content:       doc.Content,
		Tags:          doc.Tags,
		Owner:         doc.Owner,
		Collaborators: doc.Collaborators,
		FolderID:      doc.FolderID,
		IsPinned:      doc.IsPinned,
		Images:        doc.Images,
	}
	if utf8.RuneCountInString(doc.Content) <= keywordIgnoreAbove {
		n.ContentKeyword = strings.ToLower(doc.Content)
	}
	if t, err := model.ParseTimestamp(doc.CreatedAt); err == nil {
		n.CreatedAt = t
	}
	if t, err := model.ParseTimestamp(doc.UpdatedAt); err == nil {
		n.UpdatedAt = t
	}
	return n
}

func buildMapping() mapping.IndexMapping {
	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultAnalyzer = "standard"

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true
	keyword.IncludeTermVectors = true
	keyword.DocValues = true

	date := bleve.NewDateTimeFieldMapping()
	date.Store = true
	date.Index = true
	date.DocValues = true

	boolean := bleve.NewBooleanFieldMapping()
	boolean.Store = true
	boolean.Index = true

	doc.AddFieldMappingsAt(model.FieldTitle, text)
	doc.AddFieldMappingsAt(model.FieldContent, text)
	doc.AddFieldMappingsAt(fieldTitleKeyword, keyword)
	doc.AddFieldMappingsAt(fieldContentKeyword, keyword)
	doc.AddFieldMappingsAt(model.FieldTags, keyword)
	doc.AddFieldMappingsAt(model.FieldOwner, keyword)
	doc.AddFieldMappingsAt(model.FieldCollaborators, keyword)
	doc.AddFieldMappingsAt(model.FieldFolder, keyword)
	doc.AddFieldMappingsAt(model.FieldImages, keyword)
	doc.AddFieldMappingsAt(model.FieldIsPinned, boolean)
	doc.AddFieldMappingsAt(model.FieldCreatedAt, date)
	doc.AddFieldMappingsAt(model.FieldUpdatedAt, date)

	idxMapping.DefaultMapping = doc
	return idxMapping
}

// requiredFields must be mapped by an existing index for it to be reused.
var requiredFields = append([]string{fieldTitleKeyword, fieldContentKeyword}, model.SearchDocumentFields...)

func checkCompatible(m mapping.IndexMapping) error {
	impl, ok := m.(*mapping.IndexMappingImpl)
	if !ok || impl.DefaultMapping == nil {
		return fmt.Errorf("%w: unexpected mapping type %T", ErrIncompatibleSchema, m)
	}
	for _, field := range requiredFields {
		if _, ok := impl.DefaultMapping.Properties[field]; !ok {
			return fmt.Errorf("%w: field %q is not mapped", ErrIncompatibleSchema, field)
		}
	}
	return nil
}
