//go:build !headless

package ui

import (
	"errors"
	"image/color"
	"log/slog"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/cwbudde/theremotion/internal/logging"
	"github.com/cwbudde/theremotion/internal/queue"
)

const (
	panelWidth  = 640
	panelHeight = 360
	lineHeight  = 18
	volumeStep  = 3
	pasteLimit  = 16 * 1024
)

var (
	colorBackground = color.RGBA{0x14, 0x16, 0x1c, 0xff}
	colorText       = color.RGBA{0xdc, 0xdc, 0xdc, 0xff}
	colorDim        = color.RGBA{0x80, 0x80, 0x88, 0xff}
	colorWarning    = color.RGBA{0xf0, 0xc0, 0x40, 0xff}
	colorError      = color.RGBA{0xf0, 0x50, 0x50, 0xff}
	colorMeter      = color.RGBA{0x40, 0xc0, 0x80, 0xff}
	colorMeterBack  = color.RGBA{0x30, 0x30, 0x38, 0xff}
)

const helpText = "H hands  <-/-> preset  D drone  +/- volume  C copy  V paste  Esc quit"

// Panel is the window surface.
type Panel struct {
	model       *Model
	log         *slog.Logger
	clipboardOK bool
}

// RunPanel opens the panel window and blocks until it is closed. The panel
// owns m from then on; it is closed on return so the conductor drops it.
func RunPanel(m *Model, logger *slog.Logger) error {
	p := &Panel{model: m, log: logging.OrDefault(logger)}
	defer m.Close()

	p.clipboardOK = clipboard.Init() == nil
	if !p.clipboardOK {
		p.log.Warn("clipboard unavailable")
	}

	ebiten.SetWindowSize(panelWidth, panelHeight)
	ebiten.SetWindowTitle("Theremotion")
	ebiten.SetWindowResizable(true)
	ebiten.SetFullscreen(m.Settings().System.Fullscreen)

	err := ebiten.RunGame(p)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (p *Panel) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	p.model.Refresh()

	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		err = p.model.ToggleHandedness()
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		err = p.model.CyclePreset(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		err = p.model.CyclePreset(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		err = p.model.ToggleDrone()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		err = p.model.NudgeVolume(volumeStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		err = p.model.NudgeVolume(-volumeStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		p.copySettings()
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		err = p.pasteSettings()
	}

	if errors.Is(err, queue.ErrClosed) {
		p.log.Info("conductor gone, closing panel")
		return ebiten.Termination
	}
	if err != nil {
		p.model.SetNotice(err.Error())
	}
	return nil
}

func (p *Panel) copySettings() {
	if !p.clipboardOK {
		p.model.SetNotice("clipboard unavailable")
		return
	}
	s, err := p.model.SettingsText()
	if err != nil {
		p.model.SetNotice(err.Error())
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	p.model.SetNotice("settings copied")
}

func (p *Panel) pasteSettings() error {
	if !p.clipboardOK {
		p.model.SetNotice("clipboard unavailable")
		return nil
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		p.model.SetNotice("clipboard is empty")
		return nil
	}
	if len(data) > pasteLimit {
		data = data[:pasteLimit]
	}
	if err := p.model.ApplySettingsText(string(data)); err != nil {
		return err
	}
	p.model.SetNotice("settings pasted")
	return nil
}

func (p *Panel) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	face := basicfont.Face7x13

	v, ok := p.model.View()
	if !ok {
		text.Draw(screen, "waiting for the conductor...", face, 12, 24, colorDim)
		return
	}

	y := 24
	for _, line := range v.Lines() {
		c := colorText
		switch {
		case strings.HasPrefix(line, "warning"):
			c = colorWarning
		case strings.HasPrefix(line, "error"):
			c = colorError
		}
		text.Draw(screen, line, face, 12, y, c)
		y += lineHeight
	}

	// Volume meter, -60..0 dB.
	y += 4
	frac := float64(v.Volume+60) / 60
	if v.Mute {
		frac = 0
	}
	ebitenutil.DrawRect(screen, 12, float64(y), panelWidth-24, 8, colorMeterBack)
	ebitenutil.DrawRect(screen, 12, float64(y), frac*(panelWidth-24), 8, colorMeter)

	if n := p.model.Notice(); n != "" {
		text.Draw(screen, n, face, 12, panelHeight-32, colorWarning)
	}
	text.Draw(screen, helpText, face, 12, panelHeight-12, colorDim)
}

func (p *Panel) Layout(_, _ int) (int, int) {
	return panelWidth, panelHeight
}
