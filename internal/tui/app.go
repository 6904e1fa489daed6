// Package tui provides the interactive terminal front end: a scene picker
// and a live side-on view of the running world with energy readouts.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"voxelsim/internal/body"
	"voxelsim/internal/config"
	"voxelsim/internal/metrics"
	"voxelsim/internal/scene"
)

type appState int

const (
	stateMenu appState = iota
	stateSim
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var speedLevels = []float64{0.25, 0.5, 1, 2, 4}

// App is the bubbletea model behind the interactive viewer.
type App struct {
	logger *zap.Logger
	state  appState

	scenes []scene.Scene
	cursor int

	cfg      *config.Config
	inst     *scene.Instance
	recorder *metrics.Recorder
	kinetic  *metrics.KineticEnergy
	momentum *metrics.LinearMomentum

	paused   bool
	speedIdx int
	carry    float64
	trail    []mgl64.Vec3
	err      error

	width  int
	height int
}

// NewApp builds the viewer in its menu state.
func NewApp(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		logger:   logger,
		scenes:   scene.All(),
		speedIdx: 2,
		width:    100,
		height:   30,
	}
}

func (a *App) Init() tea.Cmd { return tick() }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	case tickMsg:
		if a.state == stateSim && !a.paused && a.err == nil {
			a.advance()
		}
		return a, tick()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.state {
	case stateMenu:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return a, tea.Quit
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.cursor < len(a.scenes)-1 {
				a.cursor++
			}
		case "enter", " ":
			a.startScene(a.scenes[a.cursor].Name)
		}
	case stateSim:
		switch msg.String() {
		case "ctrl+c":
			a.stopScene()
			return a, tea.Quit
		case "q", "esc":
			a.stopScene()
			a.state = stateMenu
		case " ":
			a.paused = !a.paused
		case "+", "=":
			if a.speedIdx < len(speedLevels)-1 {
				a.speedIdx++
			}
		case "-", "_":
			if a.speedIdx > 0 {
				a.speedIdx--
			}
		case "r":
			name := a.scenes[a.cursor].Name
			a.stopScene()
			a.startScene(name)
		}
	}
	return a, nil
}

func (a *App) startScene(name string) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.Scene = name
	}
	s, err := scene.Get(name)
	if err != nil {
		a.err = err
		a.state = stateSim
		return
	}
	inst, err := s.Build(cfg, a.logger)
	if err != nil {
		a.err = err
		a.state = stateSim
		return
	}
	a.cfg = cfg
	a.inst = inst
	a.kinetic = metrics.NewKineticEnergy()
	a.momentum = metrics.NewLinearMomentum()
	a.recorder = metrics.NewRecorder(a.kinetic, a.momentum)
	a.paused = false
	a.carry = 0
	a.trail = a.trail[:0]
	a.err = nil
	a.state = stateSim
}

func (a *App) stopScene() {
	if a.inst != nil {
		a.inst.World.Close()
		a.inst = nil
	}
	a.err = nil
}

// advance steps the world by as much simulated time as the frame covers
// at the current speed, in fixed dt increments.
func (a *App) advance() {
	a.carry += 0.016 * speedLevels[a.speedIdx]
	for a.carry >= a.cfg.Dt {
		a.carry -= a.cfg.Dt
		if err := a.inst.World.Step(context.Background(), a.cfg.Dt); err != nil {
			a.err = err
			return
		}
		if a.inst.Tick != nil {
			a.inst.Tick(a.inst.World.Time())
		}
	}
	a.recorder.Sample(a.inst.World.Bodies(), a.inst.World.Time())
	a.recordTrail()
}

func (a *App) recordTrail() {
	var first *body.Dynamic
	a.inst.World.Bodies().ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		if first == nil {
			first = d
		}
	})
	if first == nil {
		return
	}
	a.trail = append(a.trail, first.Position)
	if len(a.trail) > 200 {
		a.trail = a.trail[len(a.trail)-200:]
	}
}

func (a *App) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	default:
		return a.viewSim()
	}
}

func (a *App) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("voxelsim"))
	b.WriteString(dimStyle.Render("  rigid bodies, springs, and carvable voxels"))
	b.WriteString("\n\n")
	for i, s := range a.scenes {
		cursor := "  "
		style := normalStyle
		if i == a.cursor {
			cursor = selectedStyle.Render("> ")
			style = selectedStyle
		}
		b.WriteString(cursor + style.Render(s.Name) + "\n")
		b.WriteString("    " + dimStyle.Render(s.Description) + "\n")
	}
	b.WriteString("\n" + dimmerStyle.Render("↑/↓ select · enter run · q quit"))
	return b.String()
}

func (a *App) viewSim() string {
	if a.err != nil {
		return titleStyle.Render("voxelsim") + "\n\n" +
			normalStyle.Render(fmt.Sprintf("error: %v", a.err)) + "\n\n" +
			dimmerStyle.Render("esc back · ctrl+c quit")
	}

	w := a.inst.World
	var b strings.Builder

	status := fmt.Sprintf("  t=%6.2fs  speed %gx", w.Time(), speedLevels[a.speedIdx])
	if a.paused {
		status += "  " + pausedStyle.Render("PAUSED")
	}
	b.WriteString(titleStyle.Render(a.cfg.Scene) + dimStyle.Render(status) + "\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("bodies %d dyn / %d kin / %d static",
		w.Bodies().NumDynamic(), w.Bodies().NumKinematic(), w.Bodies().NumStatic())))
	b.WriteString(dimStyle.Render("   kinetic "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%8.2f J", a.kinetic.Value())))
	b.WriteString(dimStyle.Render("   |p| "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%7.2f", a.momentum.Value())))
	b.WriteString("\n")

	sparkWidth := a.width - 12
	if sparkWidth > 60 {
		sparkWidth = 60
	}
	if sparkWidth > 4 {
		b.WriteString(dimStyle.Render("kinetic  ") + valueStyle.Render(sparkline(a.kinetic.History(), sparkWidth)) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(a.drawWorld())
	b.WriteString("\n" + dimmerStyle.Render("space pause · +/- speed · r restart · esc menu"))
	return b.String()
}

// drawWorld projects body positions onto the xy plane, y up.
func (a *App) drawWorld() string {
	cw := a.width - 2
	ch := a.height - 8
	if cw < 20 {
		cw = 20
	}
	if ch < 8 {
		ch = 8
	}
	if ch > 28 {
		ch = 28
	}
	c := newCanvas(cw, ch)

	const xRange, yMax = 6.0, 10.0
	toCell := func(p mgl64.Vec3) (int, int) {
		cx := int((p.X()/xRange + 1) / 2 * float64(cw-1))
		cy := int((1 - p.Y()/yMax) * float64(ch-2))
		return cx, cy
	}

	// Ground plane along the bottom row.
	c.line(0, ch-1, cw-1, ch-1, '═')

	trailRunes := []rune("·∘○")
	for i, p := range a.trail {
		x, y := toCell(p)
		r := trailRunes[i*len(trailRunes)/len(a.trail)]
		c.set(x, y, r)
	}

	a.inst.World.Bodies().ForEachKinematic(func(_ body.KinematicID, k *body.Kinematic) {
		x, y := toCell(k.Position)
		c.set(x, y, '◉')
	})
	a.inst.World.Bodies().ForEachDynamic(func(_ body.DynamicID, d *body.Dynamic) {
		x, y := toCell(d.Position)
		c.set(x, y, '●')
		// Hint at spin with a short tick along the angular velocity.
		if w := d.AngularVelocity(); w.Len() > 2 {
			c.set(x+1, y, '/')
		}
	})
	return normalStyle.Render(c.String())
}

// Run starts the interactive viewer in the alternate screen.
func Run(logger *zap.Logger) error {
	p := tea.NewProgram(NewApp(logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunScene starts the viewer directly inside the named scene.
func RunScene(name string, logger *zap.Logger) error {
	a := NewApp(logger)
	for i, s := range a.scenes {
		if s.Name == name {
			a.cursor = i
		}
	}
	a.startScene(name)
	if a.err != nil {
		return a.err
	}
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
