package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roundtable-labs/roundtable-cli/internal/adapters/driving/tui/styles"
	"github.com/roundtable-labs/roundtable-cli/internal/core/domain"
)

// phase identifies the current screen of the TUI.
type phase int

const (
	// phaseForm shows the question form.
	phaseForm phase = iota

	// phaseDiscussing streams the running discussion.
	phaseDiscussing

	// phaseDone shows the finished transcript.
	phaseDone
)

// Form field indices.
const (
	fieldQuestion = iota
	fieldAsker
	fieldRounds
	fieldExperts
	fieldLength
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Question",
	"Your name",
	"Rounds (1-5)",
	"Panellists (3-7)",
	"Length (1-5)",
}

// discussionStartedMsg carries the event channel of a started session.
type discussionStartedMsg struct {
	events <-chan domain.TurnEvent
}

// turnEventMsg carries one streamed discussion event. ok is false when
// the event channel has closed and the session is over.
type turnEventMsg struct {
	event domain.TurnEvent
	ok    bool
}

// errMsg carries a failure starting the discussion.
type errMsg struct {
	err error
}

// App is the root TUI model. It runs one discussion at a time: the
// user fills in the question form, the panel streams its turns into a
// scrolling viewport, and the finished transcript stays on screen until
// the next question.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	ports  *Ports
	styles *styles.Styles

	phase    phase
	inputs   [fieldCount]textinput.Model
	focus    int
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	question   string
	session    *domain.PanelSession
	events     <-chan domain.TurnEvent
	transcript strings.Builder
	round      int
	err        error
}

var _ tea.Model = (*App)(nil)

// NewApp creates the root TUI model with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, ErrInvalidPorts
	}
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	st := styles.DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Subtitle

	app := &App{
		ctx:     context.Background(),
		ports:   ports,
		styles:  st,
		phase:   phaseForm,
		spinner: sp,
	}

	for i := range app.inputs {
		in := textinput.New()
		in.CharLimit = 500
		in.Width = 48
		app.inputs[i] = in
	}
	app.inputs[fieldQuestion].Placeholder = "What would the panel say about..."
	app.inputs[fieldAsker].Placeholder = domain.DefaultAskerName
	app.inputs[fieldAsker].CharLimit = 40
	for _, i := range []int{fieldRounds, fieldExperts, fieldLength} {
		app.inputs[i].CharLimit = 1
		app.inputs[i].Width = 4
	}
	app.inputs[fieldRounds].Placeholder = strconv.Itoa(domain.DefaultRounds)
	app.inputs[fieldExperts].Placeholder = strconv.Itoa(domain.DefaultExperts)
	app.inputs[fieldLength].Placeholder = strconv.Itoa(int(domain.DefaultLengthLevel))
	app.inputs[fieldQuestion].Focus()

	return app, nil
}

// WithContext sets the context used to run discussions.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("Roundtable"),
		textinput.Blink,
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.inputs[fieldQuestion].Width = max(20, msg.Width-24)
		bodyHeight := max(3, msg.Height-6)
		if !a.ready {
			a.viewport = viewport.New(msg.Width, bodyHeight)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = bodyHeight
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case discussionStartedMsg:
		a.events = msg.events
		return a, a.waitForEvent()

	case turnEventMsg:
		return a.handleTurnEvent(msg)

	case errMsg:
		a.err = msg.err
		a.phase = phaseForm
		a.setFocus(fieldQuestion)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a.updateFocused(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		a.abandon()
		return a, tea.Quit

	case "esc":
		switch a.phase {
		case phaseDiscussing:
			// Abandon the running session and return to the form.
			a.abandon()
			a.phase = phaseForm
			a.setFocus(fieldQuestion)
			return a, nil
		case phaseDone:
			a.reset()
			return a, textinput.Blink
		default:
			return a, tea.Quit
		}

	case "tab", "down":
		if a.phase == phaseForm {
			a.setFocus((a.focus + 1) % fieldCount)
			return a, textinput.Blink
		}

	case "shift+tab", "up":
		if a.phase == phaseForm {
			a.setFocus((a.focus + fieldCount - 1) % fieldCount)
			return a, textinput.Blink
		}

	case "enter":
		if a.phase == phaseForm {
			question := strings.TrimSpace(a.inputs[fieldQuestion].Value())
			if question == "" {
				a.setFocus(fieldQuestion)
				return a, textinput.Blink
			}
			return a, a.startDiscussion(question)
		}
		if a.phase == phaseDone {
			a.reset()
			return a, textinput.Blink
		}
	}

	return a.updateFocused(msg)
}

// setFocus moves keyboard focus to the given form field.
func (a *App) setFocus(field int) {
	a.focus = field
	for i := range a.inputs {
		if i == field {
			a.inputs[i].Focus()
		} else {
			a.inputs[i].Blur()
		}
	}
}

// updateFocused forwards messages to the component the current phase owns.
func (a *App) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.phase {
	case phaseForm:
		a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	case phaseDiscussing, phaseDone:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return a, cmd
}

// request assembles a panel request from the form. Blank or unparsable
// numeric fields fall back to the defaults.
func (a *App) request(question string) domain.PanelRequest {
	return domain.PanelRequest{
		Question:    question,
		AskerName:   strings.TrimSpace(a.inputs[fieldAsker].Value()),
		Rounds:      fieldInt(a.inputs[fieldRounds].Value()),
		Experts:     fieldInt(a.inputs[fieldExperts].Value()),
		LengthLevel: domain.LengthLevel(fieldInt(a.inputs[fieldLength].Value())),
	}
}

func fieldInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

// startDiscussion launches a session for the question and switches to
// the streaming phase.
func (a *App) startDiscussion(question string) tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel

	a.phase = phaseDiscussing
	a.err = nil
	a.question = question
	a.round = 0
	a.transcript.Reset()
	a.session = &domain.PanelSession{}
	a.inputs[a.focus].Blur()

	req := a.request(question)

	return tea.Batch(
		a.spinner.Tick,
		func() tea.Msg {
			events, err := a.ports.Discussion.Run(ctx, req, a.session)
			if err != nil {
				cancel()
				return errMsg{err: err}
			}
			return discussionStartedMsg{events: events}
		},
	)
}

// waitForEvent blocks on the next discussion event.
func (a *App) waitForEvent() tea.Cmd {
	events := a.events
	return func() tea.Msg {
		ev, ok := <-events
		return turnEventMsg{event: ev, ok: ok}
	}
}

func (a *App) handleTurnEvent(msg turnEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		if a.cancel != nil {
			a.cancel()
			a.cancel = nil
		}
		a.phase = phaseDone
		a.syncViewport()
		return a, nil
	}

	ev := msg.event
	switch ev.Kind {
	case domain.EventTurnStarted:
		if ev.Round != a.round {
			a.round = ev.Round
			a.transcript.WriteString(a.styles.Round.Render(roundHeader(ev.Round)) + "\n\n")
		}
		a.transcript.WriteString(a.styles.Speaker.Render(ev.Speaker+":") + "\n")

	case domain.EventTurnFragment:
		a.transcript.WriteString(ev.Fragment)

	case domain.EventTurnCompleted:
		if ev.Turn != nil && ev.Turn.Failed() {
			a.transcript.WriteString(a.styles.Error.Render("(no response: " + ev.Turn.Err + ")"))
		}
		a.transcript.WriteString("\n\n")
	}

	a.syncViewport()
	return a, a.waitForEvent()
}

func (a *App) syncViewport() {
	if !a.ready {
		return
	}
	atBottom := a.viewport.AtBottom()
	a.viewport.SetContent(a.transcript.String())
	if atBottom {
		a.viewport.GotoBottom()
	}
}

// abandon cancels a running session, if any.
func (a *App) abandon() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// reset returns to the form, keeping the previous field values so a
// follow-up question reuses the same panel shape.
func (a *App) reset() {
	a.phase = phaseForm
	a.err = nil
	a.inputs[fieldQuestion].SetValue("")
	a.setFocus(fieldQuestion)
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Roundtable") + "\n\n")

	switch a.phase {
	case phaseForm:
		for i := range a.inputs {
			label := fieldLabels[i]
			if i == a.focus {
				b.WriteString(a.styles.Subtitle.Render(label) + "\n")
			} else {
				b.WriteString(a.styles.Muted.Render(label) + "\n")
			}
			b.WriteString(a.inputs[i].View() + "\n")
		}
		b.WriteString("\n")
		if a.err != nil {
			b.WriteString(a.styles.Error.Render("Error: "+a.err.Error()) + "\n\n")
		}
		b.WriteString(a.styles.Help.Render("tab: next field • enter: ask • esc: quit"))

	case phaseDiscussing:
		b.WriteString(a.styles.Subtitle.Render(a.questionLine()) + "\n\n")
		if a.transcript.Len() == 0 {
			b.WriteString(a.spinner.View() + a.styles.Muted.Render(" Seating the panel..."))
		} else if a.ready {
			b.WriteString(a.viewport.View())
		}
		b.WriteString("\n" + a.styles.Help.Render("esc: abandon • ctrl+c: quit"))

	case phaseDone:
		b.WriteString(a.styles.Subtitle.Render(a.questionLine()) + "\n\n")
		if a.ready {
			b.WriteString(a.viewport.View())
		} else {
			b.WriteString(a.transcript.String())
		}
		b.WriteString("\n" + a.styles.Success.Render("Discussion complete."))
		b.WriteString("  " + a.styles.Help.Render("enter: new question • ctrl+c: quit"))
	}

	return b.String()
}

func (a *App) questionLine() string {
	return "Q: " + a.question
}

func roundHeader(round int) string {
	if round == 1 {
		return "=== Initial Thoughts ==="
	}
	return fmt.Sprintf("=== Round %d ===", round)
}
