package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"

	"github.com/henri123lemoine/asmdw/internal/branch"
	"github.com/henri123lemoine/asmdw/internal/cache"
	"github.com/henri123lemoine/asmdw/internal/config"
	"github.com/henri123lemoine/asmdw/internal/debug"
	"github.com/henri123lemoine/asmdw/internal/diffdoc"
	"github.com/henri123lemoine/asmdw/internal/exec"
	"github.com/henri123lemoine/asmdw/internal/geom"
	"github.com/henri123lemoine/asmdw/internal/linkermap"
	"github.com/henri123lemoine/asmdw/internal/poll"
	"github.com/henri123lemoine/asmdw/internal/status"
	"github.com/henri123lemoine/asmdw/internal/ui"
)

// State represents the current UI state.
type State int

const (
	StateView State = iota
	StatePicker
	StateHelp
	StateAlert
)

// tableTop is the screen row of the first table line.
const tableTop = 2

// Model is the main application model.
type Model struct {
	// Configuration
	config *config.Config
	ctx    context.Context
	client *poll.Client
	cache  *cache.Store

	// Long-poll session
	session *poll.Session

	// Document
	doc       *diffdoc.Document
	layout    *diffdoc.Layout
	navigator *branch.Navigator
	hover     int
	focus     int

	// Scrolling
	viewport   viewport.Model
	spring     harmonica.Spring
	animating  bool
	animToken  int
	scrollPos  float64
	scrollVel  float64
	scrollGoal float64

	// Status messages
	toasts     *status.Queue
	toastTimer bool

	// Linker map and target function
	linkerMap *linkermap.Map
	mapFresh  bool
	info      linkermap.Info
	object    string
	function  string

	// Picker
	pickerInput   textinput.Model
	pickerMatches []linkermap.Symbol
	pickerCursor  int
	pickerOffset  int
	onlyObject    bool

	// UI
	state  State
	alert  string
	width  int
	height int
	keys   KeyMap
	now    func() time.Time
}

// New creates a new Model. Requests are bound to ctx.
func New(ctx context.Context, cfg *config.Config, client *poll.Client, store *cache.Store) Model {
	pickerInput := textinput.New()
	pickerInput.Placeholder = "function name"
	pickerInput.CharLimit = 200

	fitter := geom.NewFitter(cfg.UI.ComfortFactor)

	return Model{
		config: cfg,
		ctx:    ctx,
		client: client,
		cache:  store,
		session: poll.NewSession(poll.SessionConfig{
			Continuous:  cfg.Poll.Continuous,
			Delay:       cfg.PollDelay(),
			BackoffSeed: cfg.BackoffSeed(),
		}),
		navigator:   branch.NewNavigator(fitter),
		hover:       diffdoc.NoRegion,
		focus:       diffdoc.NoRegion,
		viewport:    viewport.New(0, 0),
		spring:      harmonica.NewSpring(harmonica.FPS(60), 8.0, 1.0),
		toasts:      status.NewQueue(cfg.StatusDuration(), cfg.StatusSlideOut()),
		pickerInput: pickerInput,
		state:       StateView,
		keys:        KeyMapFromConfig(&cfg.Keys),
		now:         time.Now,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if req, ok := m.session.Begin(); ok {
		cmds = append(cmds, fetchContent(m.ctx, m.client, req))
	}
	if m.cache != nil {
		cmds = append(cmds, loadCachedLinkerMap(m.cache, m.serverURL()))
	}
	cmds = append(cmds,
		fetchLinkerMap(m.ctx, m.client, m.cache, m.serverURL()),
		fetchInfo(m.ctx, m.client),
	)
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		widthChanged := msg.Width != m.width
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = ui.TableHeight(msg.Height)
		if widthChanged {
			m.relayout()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if m.state != StateView {
			return m, nil
		}
		return m.handleMouse(msg)

	case ContentMsg:
		return m.handleContent(msg)

	case pollTickMsg:
		req, ok := m.session.Fire(msg.Token)
		if !ok {
			return m, nil
		}
		return m, fetchContent(m.ctx, m.client, req)

	case scrollFrameMsg:
		return m.handleScrollFrame(msg)

	case toastTickMsg:
		m.toastTimer = false
		m.toasts.Tick(m.now())
		return m, m.scheduleToastTick()

	case LinkerMapLoadedMsg:
		return m.handleLinkerMap(msg)

	case InfoLoadedMsg:
		if msg.Err != nil {
			return m, m.pushStatus("Could not fetch info", false)
		}
		m.info = msg.Info
		m.preselect()
		return m, nil

	case StartSetMsg:
		if msg.Err != nil {
			return m, m.pushStatus("Could not set function: "+msg.Err.Error(), false)
		}
		debug.Log(debug.CatPoll, "start set to %s", msg.Function)
		return m, nil

	case BrowserOpenedMsg:
		if msg.Err != nil {
			return m, m.pushStatus("Could not open browser: "+msg.Err.Error(), false)
		}
		return m, nil
	}

	return m, nil
}

// handleContent applies a long-poll result and arms the next cycle.
func (m Model) handleContent(msg ContentMsg) (tea.Model, tea.Cmd) {
	out := m.session.Complete(msg.Body, msg.Err)

	var cmds []tea.Cmd
	var pe *poll.ProtocolError
	var te *poll.TransportError
	switch {
	case errors.As(out.Err, &pe):
		m.state = StateAlert
		m.alert = pe.Error()
		return m, nil
	case errors.As(out.Err, &te):
		cmds = append(cmds, m.pushStatus(out.FailureMessage(), true))
	case out.Err != nil:
		debug.Log(debug.CatPoll, "dropping completion: %v", out.Err)
		return m, nil
	default:
		switch {
		case out.Response.Kind.IsDiff():
			if cmd := m.setDocument(out.Response.Payload); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case out.Response.Kind == poll.KindStatus:
			cmds = append(cmds, m.pushStatus(out.Response.Payload, false))
		}
	}

	if out.Schedule {
		cmds = append(cmds, m.schedulePoll(out.Delay, out.Token))
	}
	return m, tea.Batch(cmds...)
}

// schedulePoll arms the poll timer. A zero delay fires right away.
func (m Model) schedulePoll(delay time.Duration, token int) tea.Cmd {
	if delay <= 0 {
		req, ok := m.session.Fire(token)
		if !ok {
			return nil
		}
		return fetchContent(m.ctx, m.client, req)
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return pollTickMsg{Token: token}
	})
}

// setDocument replaces the table and rebuilds the branch graph in the same
// update, so navigation never sees regions of the old table.
func (m *Model) setDocument(markup string) tea.Cmd {
	done := debug.Timed(debug.CatDoc, "parse")
	doc, err := diffdoc.Parse(markup)
	done()
	if err != nil {
		return m.pushStatus("Could not read diff: "+err.Error(), false)
	}

	m.doc = doc
	m.hover = diffdoc.NoRegion
	m.focus = diffdoc.NoRegion
	m.layout = diffdoc.NewLayout(doc, m.tableWidth())
	m.navigator.Reset(branch.NewGraph(doc.Regions), m.layout)
	debug.Log(debug.CatDoc, "diff: %d rows, %d regions, %d navigable",
		len(doc.Body), len(doc.Regions), m.navigator.Graph().Len())
	m.refreshTable()
	return nil
}

// relayout re-wraps the current document for a new width.
func (m *Model) relayout() {
	if m.doc == nil {
		return
	}
	m.layout = diffdoc.NewLayout(m.doc, m.tableWidth())
	m.navigator.SetGeometry(m.layout)
	m.refreshTable()
}

func (m *Model) refreshTable() {
	m.viewport.SetContent(ui.RenderTable(ui.TableParams{
		Doc:       m.doc,
		Layout:    m.layout,
		Highlight: m.navigator.RegionHighlight,
		Focus:     m.focus,
	}))
}

func (m Model) tableWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

// pushStatus adds a toast and makes sure the queue is being ticked.
func (m *Model) pushStatus(text string, retry bool) tea.Cmd {
	m.toasts.Push(m.now(), text, retry)
	return m.scheduleToastTick()
}

func (m *Model) scheduleToastTick() tea.Cmd {
	if m.toastTimer {
		return nil
	}
	d, ok := m.toasts.NextWake(m.now())
	if !ok {
		return nil
	}
	m.toastTimer = true
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastTickMsg{}
	})
}

// handleKeyPress handles key presses based on current state.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateView:
		return m.handleViewKeys(msg)
	case StatePicker:
		return m.handlePickerKeys(msg)
	case StateHelp:
		return m.handleHelpKeys(msg)
	case StateAlert:
		return m.handleAlertKeys(msg)
	}
	return m, nil
}

// handleViewKeys handles key presses on the diff table.
func (m Model) handleViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.stopAnimation()
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.stopAnimation()
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.stopAnimation()
		m.viewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.stopAnimation()
		m.viewport.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.stopAnimation()
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.End):
		m.stopAnimation()
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.NextBranch):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevBranch):
		return m.moveFocus(-1)
	case key.Matches(msg, m.keys.Follow):
		if m.focus != diffdoc.NoRegion {
			return m.click(m.focus)
		}
	case key.Matches(msg, m.keys.Clear):
		m.navigator.ClickElsewhere()
		m.refreshTable()
	case key.Matches(msg, m.keys.Retry):
		return m.retry()
	case key.Matches(msg, m.keys.PickFunction):
		return m.openPicker()
	case key.Matches(msg, m.keys.OpenBrowser):
		return m, openBrowser(m.config.Open.BrowserCommand, m.serverURL())
	case key.Matches(msg, m.keys.Help):
		m.state = StateHelp
	}
	return m, nil
}

// retry short-circuits a backoff wait, or polls again when idle.
func (m Model) retry() (tea.Model, tea.Cmd) {
	req, ok := m.session.RetryNow()
	if ok {
		m.toasts.ClearRetry()
	} else if m.session.State() == poll.StateIdle && !m.session.Pending() {
		req, ok = m.session.Begin()
	}
	if !ok {
		return m, nil
	}
	return m, fetchContent(m.ctx, m.client, req)
}

// handleHelpKeys handles key presses in the help view.
func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	m.state = StateView
	return m, nil
}

// handleAlertKeys handles key presses while the protocol alert is shown.
func (m Model) handleAlertKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm), key.Matches(msg, m.keys.Cancel):
		m.state = StateView
	}
	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	return ui.Render(ui.RenderParams{
		State:     int(m.state),
		Width:     m.width,
		Height:    m.height,
		ServerURL: m.serverURL(),
		Poll: ui.PollStatus{
			State:    m.session.State().String(),
			Backoff:  m.session.Backoff(),
			Received: m.session.Received(),
		},
		Function:      m.function,
		Table:         m.viewport.View(),
		Empty:         m.doc == nil,
		ScrollPercent: m.viewport.ScrollPercent(),
		Toasts:        m.toasts.Items(m.now()),
		Alert:         m.alert,
		Picker: ui.PickerParams{
			Input:      m.pickerInput.View(),
			Matches:    m.pickerMatches,
			Cursor:     m.pickerCursor,
			Offset:     m.pickerOffset,
			Visible:    m.pickerVisible(),
			Object:     m.object,
			OnlyObject: m.onlyObject,
			Loaded:     m.linkerMap.Len() > 0,
		},
		HelpSections: m.keys.HelpSections(),
	})
}

func (m Model) serverURL() string {
	if m.client != nil {
		return m.client.URL("")
	}
	return m.config.Server.URL
}

// Commands

func fetchContent(ctx context.Context, client *poll.Client, req poll.Request) tea.Cmd {
	return func() tea.Msg {
		body, err := client.Content(ctx, req.NoWait)
		return ContentMsg{Body: body, Err: err}
	}
}

func fetchLinkerMap(ctx context.Context, client *poll.Client, store *cache.Store, serverURL string) tea.Cmd {
	return func() tea.Msg {
		dump, err := client.LinkerMap(ctx)
		if err == nil && store != nil {
			if serr := store.Save(serverURL, dump); serr != nil {
				debug.Log(debug.CatCache, "save failed: %v", serr)
			}
		}
		return LinkerMapLoadedMsg{Dump: dump, Err: err}
	}
}

func loadCachedLinkerMap(store *cache.Store, serverURL string) tea.Cmd {
	return func() tea.Msg {
		entry := store.Load(serverURL)
		if entry == nil {
			return nil
		}
		return LinkerMapLoadedMsg{Dump: entry.Dump, FromCache: true}
	}
}

func fetchInfo(ctx context.Context, client *poll.Client) tea.Cmd {
	return func() tea.Msg {
		body, err := client.Info(ctx)
		if err != nil {
			return InfoLoadedMsg{Err: err}
		}
		return InfoLoadedMsg{Info: linkermap.ParseInfo(body)}
	}
}

func setStart(ctx context.Context, client *poll.Client, fn string) tea.Cmd {
	return func() tea.Msg {
		err := client.SetStart(ctx, fn)
		return StartSetMsg{Function: fn, Err: err}
	}
}

func openBrowser(command, serverURL string) tea.Cmd {
	return func() tea.Msg {
		err := exec.OpenDetached(command, serverURL, "init&")
		return BrowserOpenedMsg{Err: err}
	}
}
