// Package textutil normalizes caller-supplied text before it is persisted.
//
// Titles and comments arrive from share sheets and browser extensions with
// inconsistent Unicode composition and stray whitespace. Normalizing once at
// the enqueue boundary keeps stored records comparable and keeps display
// layers from having to defend against control characters.
package textutil
