// Package catalog loads the ordered artwork list shown in the gallery.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateID  = errors.New("duplicate artwork id")
	ErrMissingID    = errors.New("artwork has no id")
	ErrMissingImage = errors.New("artwork has no image source")
)

// Artwork is one catalog record. Records are immutable once loaded.
type Artwork struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Artist      string `yaml:"artist" json:"artist"`
	Year        *int   `yaml:"year,omitempty" json:"year,omitempty"`
	ImageSource string `yaml:"image" json:"image"`
	Collection  string `yaml:"collection,omitempty" json:"collection,omitempty"`
	AnchorKey   string `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	NoFlip      bool   `yaml:"no_flip,omitempty" json:"no_flip,omitempty"`
}

// Label formats the wall caption. Absent parts are left out.
func (a Artwork) Label() string {
	var b strings.Builder
	b.WriteString(a.Title)
	if a.Artist != "" {
		if b.Len() > 0 {
			b.WriteString(" — ")
		}
		b.WriteString(a.Artist)
	}
	if a.Year != nil {
		fmt.Fprintf(&b, " (%d)", *a.Year)
	}
	return b.String()
}

// Load reads a YAML catalog file.
func Load(path string) ([]Artwork, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	arts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return arts, nil
}

// Parse decodes a catalog document. The document is either a bare sequence
// of records or a mapping with an "artworks" sequence. Records are validated.
func Parse(data []byte) ([]Artwork, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	var arts []Artwork
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&arts); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	case yaml.MappingNode:
		var wrapped struct {
			Artworks []Artwork `yaml:"artworks"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		arts = wrapped.Artworks
	default:
		return nil, fmt.Errorf("decode: line %d: expected a list of artworks", root.Line)
	}

	if err := Validate(arts); err != nil {
		return nil, err
	}
	return arts, nil
}

// Validate checks that every record has an id and image and that ids are unique.
func Validate(arts []Artwork) error {
	seen := make(map[string]int, len(arts))
	var errs []error
	for i, a := range arts {
		switch {
		case strings.TrimSpace(a.ID) == "":
			errs = append(errs, fmt.Errorf("record %d: %w", i, ErrMissingID))
			continue
		case strings.TrimSpace(a.ImageSource) == "":
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i, a.ID, ErrMissingImage))
		}
		if prev, dup := seen[a.ID]; dup {
			errs = append(errs, fmt.Errorf("records %d and %d: %w %q", prev, i, ErrDuplicateID, a.ID))
			continue
		}
		seen[a.ID] = i
	}
	return errors.Join(errs...)
}
