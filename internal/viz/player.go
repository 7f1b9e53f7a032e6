package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/orbitbake/internal/dynamo"
)

type TickMsg time.Time

const maxSpeed = 16

type PlayerOptions struct {
	Width, Height int // canvas size in cells
	Trail         int // samples of history drawn behind each body
	FPS           int
}

func DefaultPlayerOptions() PlayerOptions {
	return PlayerOptions{Width: 60, Height: 24, Trail: 60, FPS: 30}
}

// Player is a Bubble Tea model that loops a closed trajectory on a braille
// canvas. The trajectory is expected to be periodic, so playback wraps from
// the last frame straight back to the first.
type Player struct {
	name   string
	traj   dynamo.Trajectory
	canvas *Canvas
	view   Viewport
	opts   PlayerOptions

	frame  int
	speed  int
	paused bool
	info   []string
}

func NewPlayer(name string, traj dynamo.Trajectory, opts PlayerOptions) (Player, error) {
	if len(traj) == 0 {
		return Player{}, dynamo.ErrEmptyTrajectory
	}
	def := DefaultPlayerOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Trail < 0 {
		opts.Trail = 0
	}
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}

	c := NewCanvas(opts.Width, opts.Height)
	return Player{
		name:   name,
		traj:   traj,
		canvas: c,
		view:   FitViewport(c, traj),
		opts:   opts,
		speed:  1,
	}, nil
}

// WithInfo adds "label value" lines to the side panel.
func (m Player) WithInfo(lines ...string) Player {
	m.info = append(append([]string(nil), m.info...), lines...)
	return m
}

func (m Player) Frame() int   { return m.frame }
func (m Player) Speed() int   { return m.speed }
func (m Player) Paused() bool { return m.paused }

func (m Player) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Player) Init() tea.Cmd {
	return m.tick()
}

func (m Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "r":
			m.frame = 0
		case "right", "l":
			m.frame = (m.frame + 1) % len(m.traj)
		case "left", "h":
			m.frame = (m.frame - 1 + len(m.traj)) % len(m.traj)
		}
		return m, nil

	case TickMsg:
		if !m.paused {
			m.frame = (m.frame + m.speed) % len(m.traj)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Player) View() string {
	m.draw()

	status := StatusRunning.Render("▶ PLAYING")
	if m.paused {
		status = StatusPaused.Render("⏸ PAUSED")
	}

	var side strings.Builder
	side.WriteString(Title.Render(m.name) + "\n\n")
	side.WriteString(status + "\n\n")
	side.WriteString(Metric("frame", fmt.Sprintf("%d/%d", m.frame+1, len(m.traj))) + "\n")
	side.WriteString(Metric("speed", fmt.Sprintf("x%d", m.speed)) + "\n")
	side.WriteString(Metric("bodies", fmt.Sprint(len(m.traj[m.frame]))) + "\n")
	for i, p := range m.traj[m.frame] {
		side.WriteString(BodyStyle(i).Render("●") + Subtle.Render(fmt.Sprintf(" %+.3f %+.3f", p.X, p.Y)) + "\n")
	}
	if len(m.info) > 0 {
		side.WriteString("\n")
		for _, line := range m.info {
			side.WriteString(line + "\n")
		}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		Panel.Render(m.canvas.String()),
		Panel.Render(side.String()),
	)
	return body + "\n" + KeyHint.Render("space pause · +/- speed · ←/→ step · r restart · q quit")
}

func (m Player) draw() {
	m.canvas.Clear()
	n := len(m.traj)
	trail := m.opts.Trail
	if trail >= n {
		trail = n - 1
	}

	for b := range m.traj[m.frame] {
		for k := trail; k > 0; k-- {
			prev := m.traj[(m.frame-k+n)%n][b]
			next := m.traj[(m.frame-k+1+n)%n][b]
			m.canvas.Segment(m.view, prev, next)
		}

		x, y := m.view.Project(m.canvas, m.traj[m.frame][b])
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				m.canvas.Set(x+dx, y+dy)
			}
		}
	}
}
