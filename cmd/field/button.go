package main

import (
	"image/color"
	"time"

	"github.com/Zachkp/devfolio/internal/cursor"
	"github.com/Zachkp/devfolio/internal/frame"
)

var (
	buttonFill   = color.NRGBA{R: 99, G: 102, B: 241, A: 220}
	buttonBorder = color.NRGBA{R: 139, G: 92, B: 246, A: 255}
	buttonText   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

const buttonLabel = "Get in touch"

// button is a magnetic call-to-action. While hovered it drifts toward the
// pointer and switches the cursor to the button variant.
type button struct {
	state  *cursor.State
	magnet *cursor.Magnet

	sched       *frame.Scheduler
	surface     cursor.Surface
	frameID     frame.ID
	unsubscribe func()
	restore     func()
}

func newButton(state *cursor.State, rect cursor.Rect, fps int) *button {
	return &button{state: state, magnet: cursor.NewMagnet(rect, cursor.DefaultMagnetStrength, fps)}
}

func (b *button) mount(sched *frame.Scheduler, hub *frame.Hub, surface cursor.Surface) {
	b.sched = sched
	b.surface = surface
	b.unsubscribe = hub.Subscribe(b.handle)
	b.frameID = sched.Request(b.tick)
}

func (b *button) unmount() {
	b.sched.Cancel(b.frameID)
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	b.release()
}

func (b *button) handle(ev frame.Event) {
	switch ev.Kind {
	case frame.PointerMove:
		if b.magnet.PointerMove(ev.X, ev.Y) {
			if b.restore == nil {
				b.restore = b.state.Enter(cursor.Button, "")
			}
			return
		}
		b.release()
	case frame.PointerLeave:
		b.magnet.PointerLeave()
		b.release()
	}
}

func (b *button) release() {
	if b.restore != nil {
		b.restore()
		b.restore = nil
	}
}

func (b *button) tick(time.Time) {
	if b.unsubscribe == nil {
		return
	}
	w, h, ok := b.surface.Bounds()
	if !ok {
		return
	}
	if w <= 0 || h <= 0 {
		b.frameID = b.sched.Request(b.tick)
		return
	}
	dx, dy := b.magnet.Step()
	r := b.magnet.Rect
	x, y := r.X+dx, r.Y+dy
	radius := r.H / 2

	b.surface.Clear()
	b.surface.Line(x+radius, y+radius, x+r.W-radius, y+radius, r.H, buttonFill)
	b.surface.Circle(x+radius, y+radius, radius, buttonFill)
	b.surface.Circle(x+r.W-radius, y+radius, radius, buttonFill)
	b.surface.Line(x+radius, y, x+r.W-radius, y, 1.5, buttonBorder)
	b.surface.Line(x+radius, y+r.H, x+r.W-radius, y+r.H, 1.5, buttonBorder)
	b.surface.Text(x+r.W/2-float64(len(buttonLabel))*3, y+r.H/2-8, buttonLabel, buttonText)

	b.frameID = b.sched.Request(b.tick)
}
