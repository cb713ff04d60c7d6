// Package models defines the domain types for linkmend.
package models

import "time"

// ImageRef is one `![alt](path)` occurrence inside a document.
type ImageRef struct {
	Document string `json:"document" yaml:"document"`
	Line     int    `json:"line" yaml:"line"`
	Alt      string `json:"alt" yaml:"alt"`
	Path     string `json:"path" yaml:"path"`
	Match    string `json:"match" yaml:"match"`
	// Renders is false when a CommonMark parser would not turn Match into an image.
	Renders bool `json:"renders" yaml:"renders"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentRefs groups the image references found in a single document.
type DocumentRefs struct {
	Path  string     `json:"path"`
	Title string     `json:"title,omitempty"`
	Refs  []ImageRef `json:"refs"`
}
