package book

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the publish_date format stored in the index.
const DateLayout = "2006-01-02"

// Columns is the fixed field order used for tabular output.
var Columns = []string{"title", "authors", "summary", "publish_date", "num_reviews", "publisher"}

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Book is the source document stored in the book index.
type Book struct {
	Title       string   `json:"title" yaml:"title"`
	Authors     []string `json:"authors" yaml:"authors"`
	Summary     string   `json:"summary" yaml:"summary"`
	PublishDate string   `json:"publish_date" yaml:"publish_date"`
	NumReviews  int      `json:"num_reviews" yaml:"num_reviews"`
	Publisher   string   `json:"publisher" yaml:"publisher"`
}

// Validate checks the fields a book must carry before indexing.
func (b *Book) Validate() error {
	if b.Title == "" {
		return fmt.Errorf("title is required")
	}
	if b.NumReviews < 0 {
		return fmt.Errorf("num_reviews must be non-negative, got %d", b.NumReviews)
	}
	if b.PublishDate != "" {
		if _, err := time.Parse(DateLayout, b.PublishDate); err != nil {
			return fmt.Errorf("publish_date must be YYYY-MM-DD, got %q", b.PublishDate)
		}
	}
	for i, a := range b.Authors {
		if a == "" {
			return fmt.Errorf("authors[%d] is empty", i)
		}
	}
	return nil
}

// ValidateID checks a caller-supplied document id.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("book ID is required")
	}
	if len(id) > 512 {
		return fmt.Errorf("book ID too long (max 512)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("book ID must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// Stored is a book together with its engine id.
type Stored struct {
	ID   string
	Book Book
}

// Samples is the starter catalogue loaded by the seed command.
func Samples() []Book {
	return []Book{
		{
			Title:       "Elasticsearch: The Definitive Guide",
			Authors:     []string{"clinton gormley", "zachary tong"},
			Summary:     "A distibuted real-time search and analytics engine",
			PublishDate: "2015-02-07",
			NumReviews:  20,
			Publisher:   "oreilly",
		},
		{
			Title:   "Taming Text: How to Find, Organize, and Manipulate It",
			Authors: []string{"grant ingersoll", "thomas morton", "drew farris"},
			Summary: "organize text using approaches such as full-text search, proper name recognition, " +
				"clustering, tagging, information extraction, and summarization",
			PublishDate: "2013-01-24",
			NumReviews:  12,
			Publisher:   "manning",
		},
		{
			Title:   "Elasticsearch in Action",
			Authors: []string{"radu gheorge", "matthew lee hinman", "roy russo"},
			Summary: "build scalable search applications using Elasticsearch without having to do complex " +
				"low-level programming or understand advanced data science algorithms",
			PublishDate: "2015-12-03",
			NumReviews:  18,
			Publisher:   "manning",
		},
		{
			Title:       "Solr in Action",
			Authors:     []string{"trey grainger", "timothy potter"},
			Summary:     "Comprehensive guide",
			PublishDate: "2015-12-03",
			NumReviews:  18,
			Publisher:   "manning",
		},
	}
}
