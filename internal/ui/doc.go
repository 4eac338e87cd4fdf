// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for replaying historical concerts:
//  1. [ArtistListView] : Pick an artist from the search results
//  2. [ConcertListView] : Browse the artist's concert history
//  3. [SongListView] : Step through the setlist with a playback deck
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Resolution progress flows through a channel from the ResolutionEngine, providing
// non-blocking status reporting while tracks are matched.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
