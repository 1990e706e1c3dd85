package model

import "path/filepath"

// Card is one entry in the output manifest.
//
// ID is always serialized (zero is a valid id). Filename and Hash are omitted
// when empty so the manifest never carries an explicit null or blank value.
type Card struct {
	// ID is the zero-based position of the source file within the filtered
	// enumeration result.
	ID int `json:"id"`

	// Filename is the base name of the source file, without directory.
	Filename string `json:"filename,omitempty"`

	// Hash is the perceptual-hash token produced by the encoder.
	// It is opaque to the pipeline.
	Hash string `json:"hash,omitempty"`
}

// NewCard creates a Card for the file at path.
// Only the base name of path is kept.
func NewCard(id int, path, hash string) Card {
	return Card{
		ID:       id,
		Filename: filepath.Base(path),
		Hash:     hash,
	}
}

// Manifest is the ordered sequence of Cards for one run.
type Manifest []Card

// NewManifest returns a manifest holding cards.
// A nil slice is converted to an empty one so it serializes as [] instead of null.
func NewManifest(cards []Card) Manifest {
	if cards == nil {
		return Manifest{}
	}
	return Manifest(cards)
}

// Filenames returns the filenames of all cards in manifest order.
func (m Manifest) Filenames() []string {
	names := make([]string, len(m))
	for i, c := range m {
		names[i] = c.Filename
	}
	return names
}

// Lookup returns the card with the given filename.
func (m Manifest) Lookup(filename string) (Card, bool) {
	for _, c := range m {
		if c.Filename == filename {
			return c, true
		}
	}
	return Card{}, false
}
