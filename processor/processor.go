// Package processor runs the per-record workflow against the target
// application: search the DNI, validate the displayed name, open the detail
// view, copy the address, and close back to the base state. Each attempt
// yields exactly one Outcome, and the close action runs on every path: the
// next record depends on the UI being back at its known base state.
package processor

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"camino-lote/automation"
	"camino-lote/config"
	"camino-lote/coords"
	"camino-lote/matcher"
	"camino-lote/records"
)

// Clipboard is the subset of the clipboard accessor the workflow needs.
type Clipboard interface {
	Read() string
	Clear()
	ReadWithRetry(maxAttempts int) string
}

// Processor executes the state machine for one record at a time. It is not
// safe for concurrent use; there is one UI session and one clipboard.
type Processor struct {
	Driver    automation.Driver
	Clipboard Clipboard
	Coords    coords.Set
	Delays    config.Delays
	Attempts  int // clipboard read attempts after a copy action
}

func New(driver automation.Driver, clip Clipboard, set coords.Set, cfg *config.Config) *Processor {
	return &Processor{
		Driver:    driver,
		Clipboard: clip,
		Coords:    set,
		Delays:    cfg.Delays,
		Attempts:  cfg.ClipboardAttempts,
	}
}

// Process runs one attempt for rec. The returned error is non-nil only for
// the operator failsafe; every other problem, panics included, is converted
// to a failure Outcome so a single record can never take down the batch.
// The close click is attempted exactly once on every path.
func (p *Processor) Process(rec records.Record) (outcome Outcome, err error) {
	log.Printf("processing DNI %s (expected name %q)", rec.DNI, rec.Name)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("DNI %s: recovered from panic: %v", rec.DNI, r)
			outcome = Outcome{Kind: SystemError, Detail: fmt.Sprint(r)}
		}
		// Close regardless of how the attempt ended so the UI returns to
		// its base state for the next record.
		closeErr := p.Driver.Click(p.Coords.Get("close_btn"), "cerrar", p.Delays.Medium)
		if err == nil && errors.Is(closeErr, automation.ErrFailsafe) {
			err = closeErr
		}
	}()

	if stepErr := p.searchDNI(rec.DNI); stepErr != nil {
		return p.failed(rec.DNI, stepErr)
	}

	name, stepErr := p.copyName()
	if stepErr != nil {
		return p.failed(rec.DNI, stepErr)
	}
	if strings.TrimSpace(name) == "" {
		log.Printf("DNI %s: nothing copied for name", rec.DNI)
		return Outcome{Kind: NoDataCopied}, nil
	}
	if !matcher.Matches(rec.Name, name) {
		log.Printf("DNI %s: name mismatch, expected %q, got %q", rec.DNI, rec.Name, name)
		return Outcome{Kind: NameMismatch, Detail: name}, nil
	}

	if stepErr := p.openDetail(); stepErr != nil {
		return p.failed(rec.DNI, stepErr)
	}

	address, stepErr := p.copyAddress()
	if stepErr != nil {
		return p.failed(rec.DNI, stepErr)
	}
	if address == "" {
		log.Printf("DNI %s: no address copied after retry", rec.DNI)
		return Outcome{Kind: AddressCopyFailed}, nil
	}

	log.Printf("DNI %s: address copied (%d chars)", rec.DNI, len(address))
	return Outcome{Kind: Success, Address: address}, nil
}

// failed converts a step error into an Outcome, letting the failsafe through.
func (p *Processor) failed(dni string, stepErr error) (Outcome, error) {
	if errors.Is(stepErr, automation.ErrFailsafe) {
		return Outcome{Kind: SystemError, Detail: stepErr.Error()}, stepErr
	}
	log.Printf("DNI %s: step failed: %v", dni, stepErr)
	return Outcome{Kind: SystemError, Detail: stepErr.Error()}, nil
}

// searchDNI clears the search input and submits the identity number. The
// fixed wait afterwards covers asynchronous result rendering; the
// application offers no completion signal to poll.
func (p *Processor) searchDNI(dni string) error {
	if err := p.Driver.Click(p.Coords.Get("dni_input"), "input DNI", p.Delays.Click); err != nil {
		return err
	}
	if err := p.Driver.SelectAll(); err != nil {
		return err
	}
	if err := p.Driver.TapKey("backspace"); err != nil {
		return err
	}
	if err := p.Driver.TypeText(dni); err != nil {
		return err
	}
	if err := p.Driver.TapKey("enter"); err != nil {
		return err
	}
	p.Driver.Sleep(p.Delays.SearchWait)
	return nil
}

// copyName right-clicks the first result and copies its display name.
func (p *Processor) copyName() (string, error) {
	p.Clipboard.Clear()
	if err := p.Driver.RightClick(p.Coords.Get("first_result"), "primera cuenta", p.Delays.Medium); err != nil {
		return "", err
	}
	if err := p.Driver.Click(p.Coords.Get("copy_name_menu"), "copiar nombre", p.Delays.Medium); err != nil {
		return "", err
	}
	p.Driver.Sleep(p.Delays.ClipboardRetry)
	return p.Clipboard.ReadWithRetry(p.Attempts), nil
}

// openDetail opens the record's detail view. The detail pane is heavy to
// render, hence the longer settle delay.
func (p *Processor) openDetail() error {
	return p.Driver.Click(p.Coords.Get("first_result"), "abrir detalle", p.Delays.DetailOpen)
}

// copyAddress selects and copies the detail pane. An empty first read means a
// blocking dialog is probably covering the view: dismiss it and repeat the
// copy sequence exactly once.
func (p *Processor) copyAddress() (string, error) {
	address, err := p.attemptCopyAddress()
	if err != nil || address != "" {
		return address, err
	}

	log.Printf("no address copied - dismissing possible dialog and retrying once")
	if err := p.Driver.Click(p.Coords.Get("reconnect_click"), "cerrar cartel", p.Delays.Medium); err != nil {
		return "", err
	}
	if err := p.Driver.TapKey("enter"); err != nil {
		return "", err
	}
	p.Driver.Sleep(p.Delays.Long)

	return p.attemptCopyAddress()
}

func (p *Processor) attemptCopyAddress() (string, error) {
	if err := p.Driver.RightClick(p.Coords.Get("right_click_address"), "menu contextual", p.Delays.Medium); err != nil {
		return "", err
	}
	if err := p.Driver.Click(p.Coords.Get("select_all_menu"), "seleccionar todo", p.Delays.Medium); err != nil {
		return "", err
	}
	if err := p.Driver.RightClick(p.Coords.Get("right_click_copy"), "menu copiar", p.Delays.Medium); err != nil {
		return "", err
	}
	p.Clipboard.Clear()
	if err := p.Driver.Click(p.Coords.Get("copy_menu"), "copiar", p.Delays.Medium); err != nil {
		return "", err
	}
	p.Driver.Sleep(p.Delays.ClipboardRetry)
	return p.Clipboard.ReadWithRetry(p.Attempts), nil
}
