// Package automation provides the ordered click/type primitives the workflow
// executes against externally recorded screen coordinates. Every primitive is
// synchronous and followed by a caller-chosen settle delay, because the
// target application exposes no readiness signal.
package automation

import (
	"errors"
	"log"
	"time"

	"github.com/go-vgo/robotgo"

	"camino-lote/config"
	"camino-lote/coords"
)

// ErrFailsafe is returned when the operator parks the pointer in the top-left
// screen corner. It aborts the whole run immediately; it is the manual escape
// hatch for an automation that otherwise fights for the mouse.
var ErrFailsafe = errors.New("failsafe triggered: pointer in screen corner")

const failsafeMargin = 2

// Driver executes UI actions. The robotgo implementation drives the real
// desktop; tests substitute a scripted fake.
type Driver interface {
	Click(p coords.Point, label string, settle time.Duration) error
	RightClick(p coords.Point, label string, settle time.Duration) error
	TypeText(text string) error
	TapKey(key string) error
	SelectAll() error
	Sleep(d time.Duration)
}

// RobotDriver drives the desktop through robotgo.
type RobotDriver struct {
	delays config.Delays
}

func NewRobotDriver(delays config.Delays) *RobotDriver {
	return &RobotDriver{delays: delays}
}

func (d *RobotDriver) checkFailsafe() error {
	x, y := robotgo.Location()
	if x <= failsafeMargin && y <= failsafeMargin {
		log.Printf("automation: failsafe corner hit at (%d, %d)", x, y)
		return ErrFailsafe
	}
	return nil
}

func (d *RobotDriver) moveTo(p coords.Point) {
	robotgo.Move(p.X, p.Y)
	time.Sleep(d.delays.MouseMove)
}

func (d *RobotDriver) Click(p coords.Point, label string, settle time.Duration) error {
	if err := d.checkFailsafe(); err != nil {
		return err
	}
	log.Printf("click %s (%d, %d)", label, p.X, p.Y)
	d.moveTo(p)
	robotgo.Click("left", false)
	time.Sleep(settle)
	return nil
}

func (d *RobotDriver) RightClick(p coords.Point, label string, settle time.Duration) error {
	if err := d.checkFailsafe(); err != nil {
		return err
	}
	log.Printf("right-click %s (%d, %d)", label, p.X, p.Y)
	d.moveTo(p)
	robotgo.Click("right", false)
	time.Sleep(settle)
	return nil
}

// TypeText types character by character with a fixed inter-key interval; the
// search input drops characters when they arrive too fast.
func (d *RobotDriver) TypeText(text string) error {
	if err := d.checkFailsafe(); err != nil {
		return err
	}
	log.Printf("type %q", text)
	for _, r := range text {
		robotgo.TypeStr(string(r))
		time.Sleep(d.delays.KeyInterval)
	}
	time.Sleep(d.delays.Click)
	return nil
}

func (d *RobotDriver) TapKey(key string) error {
	if err := d.checkFailsafe(); err != nil {
		return err
	}
	if err := robotgo.KeyTap(key); err != nil {
		return err
	}
	time.Sleep(d.delays.Short)
	return nil
}

func (d *RobotDriver) SelectAll() error {
	if err := d.checkFailsafe(); err != nil {
		return err
	}
	if err := robotgo.KeyTap("a", "ctrl"); err != nil {
		return err
	}
	time.Sleep(d.delays.Short)
	return nil
}

func (d *RobotDriver) Sleep(dur time.Duration) {
	time.Sleep(dur)
}
