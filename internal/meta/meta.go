// Package meta parses the metadata block at the top of a post.
//
// Two block flavors are recognized, selected by the fence that opened the
// block: "+++" delimits TOML and "---" delimits YAML. Both accept the same keys:
//
//	title             string
//	date              date-time, optional fraction and offset
//	tags              list of strings
//	ghcommentid       unsigned integer
//	ghcommentauthors  list of strings
//
// Unknown keys are ignored. An empty block yields an empty record.
package meta

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alnah/go-md2site/internal/yamlutil"
)

// Fence characters that open a metadata block.
const (
	FenceTOML = '+'
	FenceYAML = '-'
)

// Sentinel errors for metadata parsing.
var (
	ErrUnknownFence = errors.New("unknown metadata fence")
	ErrParse        = errors.New("invalid metadata")
	ErrInvalidDate  = errors.New("invalid date")
)

// GHComment references the GitHub issue used as the comment thread of a post.
type GHComment struct {
	ID      uint32
	Authors []string
}

// Meta is the metadata of one post.
type Meta struct {
	Title     string
	Date      time.Time
	Tags      []string
	GHComment *GHComment
}

// HasTag reports whether the post carries tag.
func (m Meta) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Defaults supplies values for fields a metadata block left out.
type Defaults interface {
	Title() string
	Date() time.Time
}

// Record is the parsed content of a metadata block. Zero fields were absent;
// a nil Title was absent while an empty one was given explicitly.
type Record struct {
	Title     *string
	Date      time.Time
	Tags      []string
	GHComment *GHComment
}

// Resolve fills missing fields from d and returns the complete metadata.
// Defaults are only computed for fields that are actually missing.
func (r Record) Resolve(d Defaults) Meta {
	m := Meta{
		Date:      r.Date,
		Tags:      r.Tags,
		GHComment: r.GHComment,
	}
	if r.Title != nil {
		m.Title = *r.Title
	} else {
		m.Title = d.Title()
	}
	if m.Date.IsZero() {
		m.Date = d.Date()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m
}

// Parse decodes a metadata block body. fence is the character of the block's
// delimiter lines.
func Parse(fence byte, body string) (Record, error) {
	if strings.TrimSpace(body) == "" {
		return Record{}, nil
	}
	switch fence {
	case FenceTOML:
		return parseTOML(body)
	case FenceYAML:
		return parseYAML(body)
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownFence, fence)
	}
}

// ---------------------------------------------------------------------------
// TOML
// ---------------------------------------------------------------------------

type tomlRecord struct {
	Title            *string    `toml:"title"`
	Date             *time.Time `toml:"date"`
	Tags             []string   `toml:"tags"`
	GHCommentID      *uint32    `toml:"ghcommentid"`
	GHCommentAuthors []string   `toml:"ghcommentauthors"`
}

func parseTOML(body string) (Record, error) {
	var raw tomlRecord
	if _, err := toml.Decode(body, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: toml: %v", ErrParse, err)
	}

	rec := Record{
		Title:     raw.Title,
		Tags:      raw.Tags,
		GHComment: ghComment(raw.GHCommentID, raw.GHCommentAuthors),
	}
	if raw.Date != nil {
		rec.Date = fromTOMLTime(*raw.Date)
	}
	return rec, nil
}

// fromTOMLTime pins TOML local dates and datetimes to UTC. The decoder marks
// them with synthetic zones carrying the machine's offset, which would make
// the build depend on where it runs.
func fromTOMLTime(t time.Time) time.Time {
	switch t.Location().String() {
	case "datetime-local", "date-local":
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

type yamlRecord struct {
	Title            *string   `yaml:"title"`
	Date             *yamlDate `yaml:"date"`
	Tags             []string  `yaml:"tags"`
	GHCommentID      *uint32   `yaml:"ghcommentid"`
	GHCommentAuthors []string  `yaml:"ghcommentauthors"`
}

func parseYAML(body string) (Record, error) {
	var raw yamlRecord
	if err := yamlutil.Unmarshal([]byte(body), &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	rec := Record{
		Title:     raw.Title,
		Tags:      raw.Tags,
		GHComment: ghComment(raw.GHCommentID, raw.GHCommentAuthors),
	}
	if raw.Date != nil {
		rec.Date = time.Time(*raw.Date)
	}
	return rec, nil
}

// yamlDate accepts the same textual forms as TOML dates. Values without an
// offset are UTC.
type yamlDate time.Time

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *yamlDate) UnmarshalText(text []byte) error {
	t, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = yamlDate(t)
	return nil
}

// ParseDate parses a metadata date. Fractional seconds are accepted after the
// seconds field of any layout that has one.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func ghComment(id *uint32, authors []string) *GHComment {
	if id == nil || authors == nil {
		return nil
	}
	return &GHComment{ID: *id, Authors: authors}
}
