package notion

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jomei/notionapi"

	"github.com/vadim/neo-threads/internal/domain/export/entity"
)

// Database property names
const (
	PropertyID        = "ID"
	PropertyCreatedAt = "Created At"
	PropertyMediaType = "Media Type"
	PropertyContent   = "Content"
	PropertyViews     = "Views"
	PropertyLikes     = "Likes"
	PropertyReplies   = "Replies"
	PropertyReposts   = "Reposts"
	PropertyThreadURL = "Thread URL"
	PropertyMediaURLs = "Media URLs"
)

// maxTextContent is the largest content a single rich text object accepts
const maxTextContent = 2000

// PageCreator creates database pages
type PageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// Sink writes export records as pages of a Notion database
type Sink struct {
	pages      PageCreator
	databaseID string
}

// New creates a Notion sink for the given integration token
func New(token, databaseID string) *Sink {
	client := notionapi.NewClient(notionapi.Token(token))
	return NewWithPages(client.Page, databaseID)
}

// NewWithPages creates a sink over an existing page service
func NewWithPages(pages PageCreator, databaseID string) *Sink {
	return &Sink{
		pages:      pages,
		databaseID: databaseID,
	}
}

// Name identifies the sink in logs and metrics
func (s *Sink) Name() string {
	return "notion"
}

// Save creates one database page for the record
func (s *Sink) Save(ctx context.Context, r entity.Record) error {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseID),
		},
		Properties: Properties(r),
	}

	if _, err := s.pages.Create(ctx, req); err != nil {
		return fmt.Errorf("creating notion page for %s: %w", r.ID, err)
	}
	return nil
}

// Properties maps a record onto the database columns
func Properties(r entity.Record) notionapi.Properties {
	props := notionapi.Properties{
		PropertyID:        notionapi.TitleProperty{Title: richText(r.ID)},
		PropertyContent:   notionapi.RichTextProperty{RichText: richText(r.Content)},
		PropertyViews:     notionapi.NumberProperty{Number: float64(r.Views)},
		PropertyLikes:     notionapi.NumberProperty{Number: float64(r.Likes)},
		PropertyReplies:   notionapi.NumberProperty{Number: float64(r.Replies)},
		PropertyReposts:   notionapi.NumberProperty{Number: float64(r.Reposts)},
		PropertyMediaURLs: notionapi.RichTextProperty{RichText: richText(r.MediaURLs)},
	}

	if r.MediaType != "" {
		props[PropertyMediaType] = notionapi.SelectProperty{Select: notionapi.Option{Name: r.MediaType}}
	}
	if !r.CreatedAt.IsZero() {
		start := notionapi.Date(r.CreatedAt)
		props[PropertyCreatedAt] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
	}
	if r.ThreadURL != "" {
		props[PropertyThreadURL] = notionapi.URLProperty{URL: r.ThreadURL}
	}

	return props
}

// richText splits content into rich text objects within the size limit
func richText(content string) []notionapi.RichText {
	if content == "" {
		return []notionapi.RichText{{Text: &notionapi.Text{Content: ""}}}
	}

	var out []notionapi.RichText
	for len(content) > 0 {
		end, runes := 0, 0
		for end < len(content) && runes < maxTextContent {
			_, size := utf8.DecodeRuneInString(content[end:])
			end += size
			runes++
		}
		out = append(out, notionapi.RichText{Text: &notionapi.Text{Content: content[:end]}})
		content = content[end:]
	}
	return out
}
