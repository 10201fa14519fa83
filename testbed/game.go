package testbed

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spaghettifunk/showroom/engine"
	"github.com/spaghettifunk/showroom/engine/assets/loaders"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/systems"
)

// ShowroomGame loads the manifest's scene and prints a load report when it
// shuts down.
type ShowroomGame struct {
	*engine.Game
	out io.Writer
}

type loadRow struct {
	path      string
	size      int64
	meshes    int
	clips     int
	took      time.Duration
	loadError error
}

type gameState struct {
	mu          sync.Mutex
	width       uint32
	height      uint32
	rows        []loadRow
	environment *loaders.EnvironmentMap
	elapsed     float64
	listeners   map[core.SystemEventCode]uint64
}

func NewShowroomGame(config *engine.ApplicationConfig, out io.Writer) *ShowroomGame {
	g := &ShowroomGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				listeners: make(map[core.SystemEventCode]uint64),
			},
		},
		out: out,
	}

	g.FnInitialize = g.Initialize
	g.FnUpdate = g.Update
	g.FnOnResize = g.OnResize
	g.FnShutdown = g.Shutdown

	return g
}

func (g *ShowroomGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *ShowroomGame) Initialize() error {
	core.LogInfo("booting showroom '%s' with %d object(s)...", g.ApplicationConfig.Window.Name, len(g.ApplicationConfig.Objects))

	state := g.state()
	for _, code := range []core.SystemEventCode{
		core.EVENT_CODE_ASSET_LOADED,
		core.EVENT_CODE_ASSET_LOAD_FAILED,
		core.EVENT_CODE_ENVIRONMENT_LOADED,
	} {
		state.listeners[code] = core.EventRegister(code, g.gameOnEvent)
	}
	return nil
}

func (g *ShowroomGame) Update(deltaTime float64) error {
	state := g.state()
	state.mu.Lock()
	state.elapsed += deltaTime
	state.mu.Unlock()
	return nil
}

func (g *ShowroomGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.mu.Lock()
	defer state.mu.Unlock()

	state.width = width
	state.height = height
	return nil
}

func (g *ShowroomGame) Shutdown() error {
	state := g.state()
	for code, id := range state.listeners {
		core.EventUnregister(code, id)
	}
	if g.out != nil {
		fmt.Fprintln(g.out, g.Report())
	}
	return nil
}

// Report renders a table of every load seen so far.
func (g *ShowroomGame) Report() string {
	state := g.state()
	state.mu.Lock()
	defer state.mu.Unlock()

	failed := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ASSET", "SIZE", "MESHES", "CLIPS", "TIME", "STATUS")
	for _, row := range state.rows {
		if row.loadError != nil {
			t.Row(row.path, "-", "-", "-", "-", failed.Render(row.loadError.Error()))
			continue
		}
		t.Row(row.path,
			humanize.Bytes(uint64(row.size)),
			fmt.Sprint(row.meshes),
			fmt.Sprint(row.clips),
			row.took.Round(time.Millisecond).String(),
			"ok")
	}

	env := "none"
	if state.environment != nil {
		env = fmt.Sprintf("%s (%dx%d)", state.environment.Name, state.environment.Width, state.environment.Height)
	}
	return fmt.Sprintf("%s\nenvironment: %s, shown for %.1fs at %dx%d",
		t.String(), env, state.elapsed, state.width, state.height)
}

func (g *ShowroomGame) gameOnEvent(context core.EventContext) bool {
	state := g.state()
	state.mu.Lock()
	defer state.mu.Unlock()

	switch context.Type {
	case core.EVENT_CODE_ASSET_LOADED:
		obj := context.Data.(*systems.LoadedObject)
		state.rows = append(state.rows, loadRow{
			path:   obj.Spec.AssetPath,
			size:   obj.ByteSize,
			meshes: obj.MeshCount,
			clips:  len(obj.Animations),
			took:   obj.LoadTime,
		})
	case core.EVENT_CODE_ASSET_LOAD_FAILED:
		err, _ := context.Data.(error)
		row := loadRow{path: "?", loadError: err}
		var assetErr *core.AssetLoadError
		var envErr *core.EnvironmentLoadError
		switch {
		case errors.As(err, &assetErr):
			row.path, row.loadError = assetErr.Path, assetErr.Err
		case errors.As(err, &envErr):
			row.path, row.loadError = envErr.Path, envErr.Err
		}
		state.rows = append(state.rows, row)
	case core.EVENT_CODE_ENVIRONMENT_LOADED:
		state.environment = context.Data.(*loaders.EnvironmentMap)
	}
	return false
}
