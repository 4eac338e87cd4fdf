package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/concert-time-machine/ctm/internal/player"
	"github.com/concert-time-machine/ctm/internal/services"
	"github.com/concert-time-machine/ctm/internal/shared"
	"github.com/concert-time-machine/ctm/internal/store"
	"github.com/concert-time-machine/ctm/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ArtistListView ViewState = iota
	ConcertListView
	SongListView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	concerts services.ConcertService
	resolver *tasks.ResolutionEngine
	manager  *player.Manager
	state    *store.Store
	query    string

	width  int
	height int

	artistsLoaded bool
	artistList    list.Model
	concertList   list.Model
	songList      list.Model

	resolution   *tasks.SetlistResolution
	progressChan chan tasks.ProgressUpdate
	resultChan   chan resolveCompleteMsg
	progress     tasks.ProgressUpdate
	resolving    bool

	err  error
	help help.Model
	keys keyMap
}

type artistsFetchedMsg struct {
	artists []services.Artist
	err     error
}

type concertsFetchedMsg struct {
	page *services.SetlistPage
}

type resolveProgressMsg tasks.ProgressUpdate

type resolveCompleteMsg struct {
	resolution *tasks.SetlistResolution
	err        error
}

type trackResolvedMsg struct {
	generation uint64
	track      *services.StreamingTrack
}

type playerTickMsg struct{}

// NewModel creates a new TUI model with the provided dependencies. The query
// seeds the initial artist search.
func NewModel(
	ctx context.Context,
	concerts services.ConcertService,
	resolver *tasks.ResolutionEngine,
	manager *player.Manager,
	selection *store.Store,
	query string,
) *Model {
	return &Model{
		ctx:      ctx,
		view:     ArtistListView,
		concerts: concerts,
		resolver: resolver,
		manager:  manager,
		state:    selection,
		query:    query,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by searching for the requested artist.
func (m *Model) Init() tea.Cmd {
	return m.fetchArtists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.artistList.Width() == 0 {
			m.artistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.concertList.Width() == 0 {
			m.concertList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.songList.Width() == 0 {
			m.songList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ArtistListView:
			return m.handleArtistListKeys(msg)
		case ConcertListView:
			return m.handleConcertListKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		}

	case artistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if len(msg.artists) == 0 {
			m.err = fmt.Errorf("no artists found for %q", m.query)
			return m, tea.Quit
		}
		m.artistsLoaded = true
		items := make([]list.Item, len(msg.artists))
		for i, artist := range msg.artists {
			items[i] = artistItem{artist: artist}
		}
		m.artistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.artistList.Title = fmt.Sprintf("Artists matching '%s'", m.query)
		m.artistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case concertsFetchedMsg:
		if len(msg.page.Concerts) == 0 {
			m.err = fmt.Errorf("no concerts found")
			m.view = ArtistListView
			return m, nil
		}
		m.state.SetConcerts(msg.page.Concerts)
		items := make([]list.Item, len(msg.page.Concerts))
		for i, concert := range msg.page.Concerts {
			items[i] = concertItem{concert: concert}
		}
		m.concertList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		if artist := m.state.Artist(); artist != nil {
			m.concertList.Title = fmt.Sprintf("Concerts by %s", artist.Name)
		}
		m.concertList.SetSize(m.width-4, m.height-8)
		m.view = ConcertListView
		return m, nil

	case resolveProgressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForResolution()

	case resolveCompleteMsg:
		m.resolving = false
		m.progressChan = nil
		m.resultChan = nil
		if msg.resolution != nil && msg.resolution.Generation == m.state.Generation() {
			m.resolution = msg.resolution
			m.buildSongList()
		}
		return m, nil

	case trackResolvedMsg:
		if !m.state.SetResolvedTrack(msg.generation, msg.track) {
			return m, nil
		}
		if msg.track == nil || m.manager == nil {
			return m, nil
		}
		uri := msg.track.URI
		return m, func() tea.Msg {
			if m.manager.PlayTrack(m.ctx, uri) {
				m.state.SetPlaying(true)
			}
			return nil
		}

	case playerTickMsg:
		if m.view == SongListView {
			return m, m.tick()
		}
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ArtistListView:
		return m.renderArtistList()
	case ConcertListView:
		return m.renderConcertList()
	case SongListView:
		return m.renderSongList()
	default:
		return ""
	}
}

func (m *Model) handleArtistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.artistList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(artistItem); ok {
				artist := item.artist
				m.state.SelectArtist(&artist)
				return m, m.fetchConcerts(artist.MBID)
			}
		}
	}

	var cmd tea.Cmd
	m.artistList, cmd = m.artistList.Update(msg)
	return m, cmd
}

func (m *Model) handleConcertListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ArtistListView
		return m, nil
	case "enter":
		selected := m.concertList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(concertItem); ok {
				concert := item.concert
				m.state.SelectConcert(&concert)
				m.resolution = nil
				m.buildSongList()
				m.view = SongListView
				return m, tea.Batch(m.startResolution(&concert), m.tick())
			}
		}
	}

	var cmd tea.Cmd
	m.concertList, cmd = m.concertList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ConcertListView
		return m, nil
	case "enter":
		m.state.SetSongIndex(m.songList.Index())
		return m, m.playCurrent()
	case " ", "p":
		if m.manager != nil {
			m.manager.TogglePlayPause(m.ctx)
			m.state.SetPlaying(!m.state.Playing())
		}
		return m, nil
	case "n":
		m.state.NextSong()
		m.songList.Select(m.state.SongIndex())
		return m, m.playCurrent()
	case "b":
		m.state.PreviousSong()
		m.songList.Select(m.state.SongIndex())
		return m, m.playCurrent()
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ArtistListView:
		m.artistList, cmd = m.artistList.Update(msg)
	case ConcertListView:
		m.concertList, cmd = m.concertList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchArtists() tea.Cmd {
	return func() tea.Msg {
		artists, err := m.concerts.SearchArtists(m.ctx, m.query, services.WithConcertsOnly())
		return artistsFetchedMsg{artists: artists, err: err}
	}
}

func (m *Model) fetchConcerts(mbid string) tea.Cmd {
	return func() tea.Msg {
		return concertsFetchedMsg{page: m.concerts.ArtistSetlists(m.ctx, mbid, 1)}
	}
}

// startResolution kicks off background track resolution for the selected
// concert. The resolution is tagged with the selection generation so a result
// for an abandoned concert is never adopted.
func (m *Model) startResolution(concert *services.Concert) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.resultChan = make(chan resolveCompleteMsg, 1)
	m.resolving = true

	go func(prog chan tasks.ProgressUpdate, done chan resolveCompleteMsg, generation uint64) {
		resolution, err := m.resolver.ResolveSetlist(m.ctx, prog, concert, generation, tasks.ResolveOpts{})
		done <- resolveCompleteMsg{resolution: resolution, err: err}
		close(prog)
	}(m.progressChan, m.resultChan, m.state.Generation())

	return m.waitForResolution()
}

func (m *Model) waitForResolution() tea.Cmd {
	prog, done := m.progressChan, m.resultChan
	return func() tea.Msg {
		if prog == nil {
			return nil
		}
		update, ok := <-prog
		if !ok {
			return <-done
		}
		return resolveProgressMsg(update)
	}
}

// playCurrent resolves the selected song and starts playback, preferring the
// setlist-wide resolution when it is still current.
func (m *Model) playCurrent() tea.Cmd {
	concert := m.state.Concert()
	if concert == nil {
		return nil
	}

	songs := tasks.PerformedSongs(concert)
	index := m.state.SongIndex()
	if index < 0 || index >= len(songs) {
		return nil
	}
	song := songs[index]
	generation := m.state.Generation()

	if m.resolution != nil && m.resolution.Generation == generation && index < len(m.resolution.Resolutions) {
		track := m.resolution.Resolutions[index].Track
		return func() tea.Msg { return trackResolvedMsg{generation: generation, track: track} }
	}

	return func() tea.Msg {
		return trackResolvedMsg{generation: generation, track: m.resolver.ResolveSong(m.ctx, song)}
	}
}

func (m *Model) buildSongList() {
	concert := m.state.Concert()
	if concert == nil {
		return
	}

	songs := tasks.PerformedSongs(concert)
	items := make([]list.Item, len(songs))
	for i, song := range songs {
		item := songItem{position: i + 1, song: song}
		if m.resolution != nil && i < len(m.resolution.Resolutions) {
			item.track = m.resolution.Resolutions[i].Track
		}
		items[i] = item
	}

	m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.songList.Title = fmt.Sprintf("%s • %s", concert.Artist.Name, concert.EventDate)
	m.songList.SetSize(m.width-4, m.height-10)
	m.songList.Select(m.state.SongIndex())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return playerTickMsg{} })
}

func (m *Model) renderArtistList() string {
	if !m.artistsLoaded {
		return styles.title.Render(fmt.Sprintf("Searching for '%s'...", m.query))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.artistList.View(), helpView)
}

func (m *Model) renderConcertList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.concertList.View(), helpView)
}

func (m *Model) renderSongList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.next, m.keys.prev, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n%s", m.songList.View(), m.renderDeck(), helpView)
}

// renderDeck draws the playback status line under the song list.
func (m *Model) renderDeck() string {
	if m.resolving {
		return styles.warn.Render(m.progress.Message)
	}

	if m.manager == nil {
		return styles.help.Render("browse only • run 'ctm auth login' to enable playback")
	}

	state := m.manager.State()
	if !state.Ready {
		if err := m.manager.LastError(); err != nil {
			return styles.warn.Render(fmt.Sprintf("playback unavailable: %v", err))
		}
		return styles.help.Render("browse only • run 'ctm auth login' to enable playback")
	}

	status := "▶"
	if state.Paused {
		status = "⏸"
	}

	line := fmt.Sprintf("%s %s", status, state.TrackName)
	if state.TrackArtist != "" {
		line = fmt.Sprintf("%s • %s", line, state.TrackArtist)
	}
	if state.DurationMS > 0 {
		line = fmt.Sprintf("%s  [%s/%s]", line, shared.FormatDuration(state.PositionMS), shared.FormatDuration(state.DurationMS))
	}
	return styles.ok.Render(line)
}
