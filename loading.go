package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/skim/internal/proto"
)

const (
	charCyclingFPS     = time.Second / 22
	initialCharsLength = 6
)

var charRunes = []rune("0123456789abcdefABCDEF~!@#$£€%^&*()+=_")

type charState int

const (
	charInitialState charState = iota
	charCyclingState
	charEndOfLifeState
)

// cyclingChar is a single animated character.
type cyclingChar struct {
	finalValue   rune // if < 0 cycle forever
	currentValue rune
	initialDelay time.Duration
}

func (c cyclingChar) randomRune() rune {
	return charRunes[rand.Intn(len(charRunes))] //nolint:gosec
}

func (c cyclingChar) state(start time.Time) charState {
	now := time.Now()
	if now.Before(start.Add(c.initialDelay)) {
		return charInitialState
	}
	if c.finalValue > 0 {
		return charEndOfLifeState
	}
	return charCyclingState
}

type stepCharsMsg struct{}

type stopLoadingMsg struct{}

func stepChars() tea.Cmd {
	return tea.Tick(charCyclingFPS, func(time.Time) tea.Msg {
		return stepCharsMsg{}
	})
}

var ellipsisSpinner = spinner.Spinner{
	Frames: []string{"", ".", "..", "..."},
	FPS:    time.Second / 3, //nolint:mnd
}

// loading is shown on stderr while a provider request is in flight.
type loading struct {
	start    time.Time
	chars    []cyclingChar
	label    []rune
	ellipsis spinner.Model
	styles   styles
	stopped  bool
}

func newLoading(modelName string) loading {
	l := loading{
		start:    time.Now(),
		label:    []rune(" Asking " + modelName),
		ellipsis: spinner.New(spinner.WithSpinner(ellipsisSpinner)),
		styles:   stderrStyles(),
	}

	delay := func() time.Duration {
		return time.Duration(rand.Int31n(8)) * 60 * time.Millisecond //nolint:gosec,mnd
	}

	l.chars = make([]cyclingChar, initialCharsLength+len(l.label))
	for i := range initialCharsLength {
		l.chars[i] = cyclingChar{finalValue: -1, currentValue: '.', initialDelay: delay()}
	}
	for i, r := range l.label {
		l.chars[i+initialCharsLength] = cyclingChar{finalValue: r, currentValue: '.', initialDelay: delay()}
	}
	return l
}

func (l loading) Init() tea.Cmd {
	return tea.Batch(stepChars(), l.ellipsis.Tick)
}

func (l loading) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopLoadingMsg:
		l.stopped = true
		return l, tea.Quit
	case stepCharsMsg:
		for i, char := range l.chars {
			switch char.state(l.start) {
			case charInitialState:
				l.chars[i].currentValue = '.'
			case charCyclingState:
				l.chars[i].currentValue = char.randomRune()
			case charEndOfLifeState:
				l.chars[i].currentValue = char.finalValue
			}
		}
		return l, stepChars()
	case spinner.TickMsg:
		var cmd tea.Cmd
		l.ellipsis, cmd = l.ellipsis.Update(msg)
		return l, cmd
	default:
		return l, nil
	}
}

func (l loading) View() string {
	if l.stopped {
		return ""
	}
	var b strings.Builder
	for _, char := range l.chars {
		if char.finalValue < 0 || char.state(l.start) == charInitialState {
			b.WriteString(l.styles.Spinner.Render(string(char.currentValue)))
			continue
		}
		b.WriteRune(char.currentValue)
	}
	b.WriteString(l.ellipsis.View())
	if elapsed := time.Since(l.start); elapsed >= time.Second {
		b.WriteString(l.styles.Comment.Render(fmt.Sprintf(" %s", elapsed.Truncate(time.Second))))
	}
	return b.String()
}

// termRenderer shows the loading animation while an attempt is in flight.
// Results are printed by the caller, which knows the output mode.
type termRenderer struct {
	quiet bool
	log   *log.Logger

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

func (r *termRenderer) OnLoading(modelName string) {
	if r.quiet || !isErrTTY() {
		return
	}
	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	p := tea.NewProgram(
		newLoading(modelName),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	r.program, r.done = p, done
	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil {
			r.log.Debug("Loading animation failed", "err", err)
		}
	}()
}

func (r *termRenderer) OnResult(res proto.Result) {
	r.stop()
	if res.OK() {
		r.log.Debug("Got a summary", "bytes", len(res.HTML))
	}
}

func (r *termRenderer) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program == nil {
		return
	}
	r.program.Send(stopLoadingMsg{})
	<-r.done
	r.program, r.done = nil, nil
}
