package ranking

import (
	"strings"

	"github.com/NegroHm/uda-apuntes/internal/drive"
)

// Category is the scoring bucket a file falls into.
type Category string

const (
	CategoryPDF          Category = "pdf"
	CategoryWord         Category = "word"
	CategoryPresentation Category = "presentations"
	CategoryImage        Category = "images"
	CategoryOther        Category = "other"
)

// Weights maps categories to points per file.
type Weights map[Category]int

// DefaultWeights returns the scoring policy: PDF 3, Word 2, presentation 2,
// image 1, anything else 0.
func DefaultWeights() Weights {
	return Weights{
		CategoryPDF:          3,
		CategoryWord:         2,
		CategoryPresentation: 2,
		CategoryImage:        1,
		CategoryOther:        0,
	}
}

// Score returns the points awarded to one file of the given category.
func (w Weights) Score(c Category) int {
	return w[c]
}

// Classify assigns a Drive entry to a scoring category. Rules check the
// MIME type first, then the lowercased file extension. The four MIME groups
// are disjoint, so at most one rule matches.
func Classify(e drive.Entry) Category {
	name := strings.ToLower(e.Name)

	if e.MimeType == "application/pdf" || strings.HasSuffix(name, ".pdf") {
		return CategoryPDF
	}
	if e.MimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" ||
		e.MimeType == "application/msword" ||
		strings.HasSuffix(name, ".docx") || strings.HasSuffix(name, ".doc") {
		return CategoryWord
	}
	if e.MimeType == "application/vnd.openxmlformats-officedocument.presentationml.presentation" ||
		e.MimeType == "application/vnd.ms-powerpoint" ||
		strings.HasSuffix(name, ".pptx") || strings.HasSuffix(name, ".ppt") {
		return CategoryPresentation
	}
	if strings.HasPrefix(e.MimeType, "image/") ||
		strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") ||
		strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".gif") ||
		strings.HasSuffix(name, ".webp") {
		return CategoryImage
	}
	return CategoryOther
}

// FileTypeTally counts files per recognized category. "other" files are
// counted only in CareerStat.TotalFiles.
type FileTypeTally struct {
	PDF           int `json:"pdf"`
	Word          int `json:"word"`
	Images        int `json:"images"`
	Presentations int `json:"presentations"`
}

// Add increments the bucket for the category, if any.
func (t *FileTypeTally) Add(c Category) {
	switch c {
	case CategoryPDF:
		t.PDF++
	case CategoryWord:
		t.Word++
	case CategoryImage:
		t.Images++
	case CategoryPresentation:
		t.Presentations++
	}
}

// Sum returns the total of all four buckets.
func (t FileTypeTally) Sum() int {
	return t.PDF + t.Word + t.Images + t.Presentations
}

// CareerStat is the aggregate result of scoring one career folder.
// Immutable once the aggregation returns.
type CareerStat struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	FacultyName      string        `json:"facultyName"`
	Icon             string        `json:"icon"`
	Rank             int           `json:"rank,omitempty"`
	TotalFiles       int           `json:"totalFiles"`
	TotalScore       int           `json:"totalScore"`
	FileTypes        FileTypeTally `json:"fileTypes"`
	FoldersProcessed int           `json:"foldersProcessed"`
}
