// Package tui renders the dashboard as a full-screen terminal UI with
// mouse-driven layout editing.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/homedeck/internal/app"
	"github.com/Dicklesworthstone/homedeck/internal/config"
	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
	"github.com/Dicklesworthstone/homedeck/internal/editor"
	"github.com/Dicklesworthstone/homedeck/internal/entity"
	"github.com/Dicklesworthstone/homedeck/internal/hass"
	"github.com/Dicklesworthstone/homedeck/internal/theme"
	"github.com/Dicklesworthstone/homedeck/internal/view"
)

// snapshotMsg carries a fresh entity snapshot from the store.
type snapshotMsg entity.Snapshot

// layoutMsg carries a layout change from the layout store.
type layoutMsg dashboard.Config

// connStatusMsg carries a connection status transition.
type connStatusMsg hass.Status

// NoticeMsg sets the transient status-line notice.
type NoticeMsg string

// tickMsg drives the periodic refresh of the status line clock.
type tickMsg time.Time

const tickInterval = time.Second

// Model is the dashboard UI model. All mutation happens on the bubbletea
// event loop, which also satisfies the editor's single-goroutine contract.
type Model struct {
	app    *app.App
	keys   KeyMap
	styles Styles

	width  int
	height int

	activeTab string
	snap      entity.Snapshot
	layout    dashboard.Config
	status    hass.Status

	// Entity picker for adding cards: entities relevant to the active
	// tab that have no card yet, cycled by repeated presses of Add.
	addCursor int

	notice   string
	quitting bool
}

// New creates the dashboard model.
func New(a *app.App, palette theme.Palette) Model {
	return Model{
		app:       a,
		keys:      dashKeys,
		styles:    NewStyles(palette),
		width:     80,
		height:    24,
		activeTab: firstTab(a.Layout.Config()),
		snap:      a.Entities.Snapshot(),
		layout:    a.Layout.Config(),
		status:    a.Client.Status(),
	}
}

func firstTab(cfg dashboard.Config) string {
	if len(cfg.TabOrder) > 0 {
		return cfg.TabOrder[0]
	}
	return "home"
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncEditorMetrics()
		return m, nil

	case snapshotMsg:
		m.snap = entity.Snapshot(msg)
		m.provisionActiveTab()
		return m, nil

	case layoutMsg:
		m.layout = dashboard.Config(msg)
		if _, ok := m.layout.Tabs[m.activeTab]; !ok {
			m.activeTab = firstTab(m.layout)
		}
		return m, nil

	case connStatusMsg:
		m.status = hass.Status(msg)
		return m, nil

	case NoticeMsg:
		m.notice = string(msg)
		return m, nil

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	editing := m.app.Editor.Enabled()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if editing {
			m.app.Editor.Cancel()
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if editing {
			m.app.Editor.Cancel()
			m.notice = "edit cancelled"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Edit):
		if !editing {
			m.app.Editor.InitSession(m.activeTab)
			m.syncEditorMetrics()
			m.addCursor = 0
			m.notice = "editing layout"
		}
		return m, nil

	case key.Matches(msg, m.keys.Commit):
		if editing {
			m.app.Editor.Commit()
			m.notice = "layout saved"
		}
		return m, nil

	case key.Matches(msg, m.keys.Undo):
		if editing {
			m.app.Editor.Undo()
		}
		return m, nil

	case key.Matches(msg, m.keys.Redo):
		if editing {
			m.app.Editor.Redo()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if editing {
			if id := m.app.Editor.Selected(); id != "" {
				m.app.Editor.DeleteCard(id)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Duplicate):
		if editing {
			if id := m.app.Editor.Selected(); id != "" {
				m.app.Editor.DuplicateCard(id)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		if editing {
			m.addNextEntity()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		if !editing {
			m.activeTab = m.stepTab(1)
			m.provisionActiveTab()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		if !editing {
			m.activeTab = m.stepTab(-1)
			m.provisionActiveTab()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.snap = m.app.Entities.Snapshot()
		m.layout = m.app.Layout.Config()
		return m, nil
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.app.Editor.Enabled() {
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			g := m.geometry()
			if card, ok := cardAt(m.cards(), g, msg.X, msg.Y); ok && card.Live {
				return m, m.toggleEntity(card.Entity)
			}
		}
		return m, nil
	}

	g := m.geometry()
	px, py := g.toEditorSpace(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		card, ok := cardAt(m.cards(), g, msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		// A press on the border starts a resize; the gesture claims the
		// press so it cannot also start a drag.
		if h, onEdge := handleAt(card, g, msg.X, msg.Y); onEdge {
			m.app.Editor.ResizeDown(card.ID, editor.Handle(h), px, py)
		} else {
			m.app.Editor.PointerDown(card.ID, px, py)
		}
	case tea.MouseActionMotion:
		m.app.Editor.PointerMove(px, py)
	case tea.MouseActionRelease:
		m.app.Editor.PointerUp()
	}
	return m, nil
}

// toggleEntity calls homeassistant.toggle for a clicked entity.
func (m Model) toggleEntity(e entity.Entity) tea.Cmd {
	client := m.app.Client
	id := e.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.CallService(ctx, "homeassistant", "toggle", map[string]any{
			"entity_id": id,
		})
		return nil
	}
}

// addNextEntity adds a draft card for the next relevant entity without one,
// cycling through candidates on repeated presses.
func (m *Model) addNextEntity() {
	bound := map[string]struct{}{}
	for _, ent := range m.app.Editor.Snapshot().CardEntities {
		bound[ent] = struct{}{}
	}
	candidates := make([]entity.Entity, 0)
	for _, e := range view.RelevantEntities(m.snap) {
		if !view.MatchesTab(m.activeTab, e) {
			continue
		}
		if _, ok := bound[e.ID]; ok {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		m.notice = "no unplaced entities for this tab"
		return
	}
	e := candidates[m.addCursor%len(candidates)]
	m.addCursor++
	m.app.Editor.AddCard(e.ID)
	m.notice = "added " + e.FriendlyName()
}

func (m Model) stepTab(delta int) string {
	order := m.layout.TabOrder
	if len(order) == 0 {
		return m.activeTab
	}
	idx := 0
	for i, id := range order {
		if id == m.activeTab {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	return order[idx]
}

// provisionActiveTab auto-populates a never-provisioned tab from the live
// entities matching it.
func (m *Model) provisionActiveTab() {
	if m.app.Editor.Enabled() {
		return
	}
	relevant := make([]entity.Entity, 0)
	for _, e := range view.RelevantEntities(m.snap) {
		if view.MatchesTab(m.activeTab, e) {
			relevant = append(relevant, e)
		}
	}
	if len(relevant) == 0 {
		return
	}
	m.app.EnsureActiveTab(m.activeTab, relevant)
	m.layout = m.app.Layout.Config()
}

func (m *Model) syncEditorMetrics() {
	tab, ok := m.layout.Tabs[m.activeTab]
	if !ok {
		return
	}
	m.app.Editor.SetGridMetrics(editor.GridMetrics{
		HalfUnitSizePx: unitPx / 2,
		Cols:           tab.GridColumns,
		Rows:           tab.GridRows,
	})
}

func (m Model) geometry() gridGeometry {
	tab, ok := m.layout.Tabs[m.activeTab]
	cols, rows := dashboard.DefaultGridColumns, dashboard.DefaultGridRows
	if ok {
		cols, rows = tab.GridColumns, tab.GridRows
	}
	return newGeometry(m.width, m.gridHeight(), 1, cols, rows)
}

// gridHeight is the terminal rows available for the card grid: everything
// between the tab bar and the status line.
func (m Model) gridHeight() int {
	h := m.height - 2
	if h < 4 {
		h = 4
	}
	return h
}

func (m Model) cards() []view.Card {
	return view.Cards(view.Inputs{
		Entities:  m.snap,
		Layout:    m.layout,
		Session:   m.app.Editor.Snapshot(),
		ActiveTab: m.activeTab,
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderTabBar())
	b.WriteByte('\n')
	b.WriteString(m.renderGrid())
	b.WriteByte('\n')
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderTabBar() string {
	parts := make([]string, 0, len(m.layout.TabOrder))
	for _, id := range m.layout.TabOrder {
		title := id
		if tab, ok := m.layout.Tabs[id]; ok && tab.Title != "" {
			title = tab.Title
		}
		if id == m.activeTab {
			parts = append(parts, m.styles.TabActive.Render("["+title+"]"))
		} else {
			parts = append(parts, m.styles.TabInactive.Render(" "+title+" "))
		}
	}
	bar := strings.Join(parts, " ")
	if m.app.Editor.Enabled() {
		bar += "  " + m.styles.CardDraft.Render("EDIT")
	}
	return m.styles.TabBar.Render(bar)
}

func (m Model) renderGrid() string {
	cards := m.cards()
	g := m.geometry()
	c := newCanvas(m.width, m.gridHeight())

	session := m.app.Editor.Snapshot()
	for i, card := range cards {
		x, y, w, h := g.rectToTerm(card.Position)
		y -= g.originY // canvas is grid-local
		c.drawBox(x, y, w, h, i)
		c.drawText(x+1, y+1, w-2, i, cardTitle(card))
		if h > 3 {
			c.drawText(x+1, y+2, w-2, i, cardState(card))
		}
	}

	return c.render(func(i int) lipgloss.Style {
		card := cards[i]
		switch {
		case session.Enabled && card.ID == session.Selected && session.Collision:
			return m.styles.CardCollision
		case session.Enabled && card.ID == session.Selected:
			return m.styles.CardSelected
		case card.Draft:
			return m.styles.CardDraft
		case card.Problem || !card.Live:
			return m.styles.CardProblem
		case card.Live && card.Entity.State == "on":
			return m.styles.CardOn
		case card.Live && card.Entity.State == "off":
			return m.styles.CardOff
		default:
			return m.styles.Card
		}
	})
}

func cardTitle(c view.Card) string {
	if c.Live {
		return c.Entity.FriendlyName()
	}
	if c.EntityID != "" {
		return c.EntityID
	}
	return "(unbound)"
}

func cardState(c view.Card) string {
	if !c.Live {
		return "missing"
	}
	s := c.Entity.State
	if unit, ok := c.Entity.Attributes["unit_of_measurement"].(string); ok {
		s += " " + unit
	}
	return s
}

func (m Model) renderStatusBar() string {
	conn := string(m.status)
	style := m.styles.StatusBar
	if m.status == hass.StatusError {
		style = m.styles.StatusError
	}

	left := fmt.Sprintf("%s  %d entities", conn, len(m.snap.Entities))
	if n := len(m.snap.Problems); n > 0 {
		left += fmt.Sprintf("  %d unavailable", n)
	}
	if m.notice != "" {
		left += "  " + m.notice
	}

	help := "e edit  tab switch  q quit"
	if m.app.Editor.Enabled() {
		help = "enter save  esc cancel  u undo  a add  d delete"
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		gap = 1
	}
	return style.Render(left) + strings.Repeat(" ", gap) + m.styles.Help.Render(help)
}

// watchConfig forwards config file edits into the running program as
// status-line notices. Connection settings cannot be re-applied to a live
// client, so those changes surface as a restart prompt.
func watchConfig(path string, current *config.Config, send func(tea.Msg)) (func(), error) {
	return config.Watch(path, func(next *config.Config) {
		if next.Server != current.Server {
			send(NoticeMsg("server settings changed; restart to apply"))
			return
		}
		send(NoticeMsg("config reloaded"))
	})
}

// Run starts the UI program, bridging store subscriptions and config file
// edits into the bubbletea event loop.
func Run(a *app.App, palette theme.Palette, cfgPath string) error {
	p := tea.NewProgram(
		New(a, palette),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	unsubSnap := a.Entities.Subscribe(func(s entity.Snapshot) {
		p.Send(snapshotMsg(s))
	})
	defer unsubSnap()
	unsubLayout := a.Layout.Subscribe(func(cfg dashboard.Config) {
		p.Send(layoutMsg(cfg))
	})
	defer unsubLayout()
	a.Client.OnStatusChange(func(s hass.Status) {
		p.Send(connStatusMsg(s))
	})
	if cfgPath != "" {
		if stop, err := watchConfig(cfgPath, a.Cfg, p.Send); err == nil {
			defer stop()
		}
	}

	_, err := p.Run()
	return err
}
