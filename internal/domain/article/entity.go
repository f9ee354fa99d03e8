// Package article models PubTator offset-file records and reads them from a
// line stream one record at a time.
package article

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// RawAnnotation is one annotation line as it appears in the offset file.
// Start and End index Title+Abstract in Unicode code points.
type RawAnnotation struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Surface  string `json:"surface"`
	Category string `json:"category"`
	RawID    string `json:"raw_id"`
}

// ArticleRecord is one fully assembled title/abstract block and its
// annotations in file order. Duplicates are kept.
type ArticleRecord struct {
	PMID        string          `json:"pmid"`
	Title       string          `json:"title"`
	Abstract    string          `json:"abstract"`
	Annotations []RawAnnotation `json:"annotations"`
}

// Text returns Title+Abstract, the string annotation offsets refer to.
func (r *ArticleRecord) Text() string {
	return r.Title + r.Abstract
}

// TextLen is the length of Text in code points.
func (r *ArticleRecord) TextLen() int {
	return utf8.RuneCountInString(r.Title) + utf8.RuneCountInString(r.Abstract)
}

// NormalizeTitle appends a single space to title unless it already ends in
// whitespace, so that title and abstract concatenate as separate words.
func NormalizeTitle(title string) string {
	if title == "" {
		return " "
	}
	last, _ := utf8.DecodeLastRuneInString(title)
	if unicode.IsSpace(last) {
		return title
	}
	return title + " "
}

// trimEOL strips a trailing "\n" or "\r\n" and nothing else.
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

//Personal.AI order the ending
