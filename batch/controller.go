// Package batch drives the whole run: it feeds records to the processor,
// persists every outcome immediately, watches for consecutive-failure
// streaks, and decides between connectivity recovery and UI recovery when a
// streak hits the threshold. No record is silently dropped and a replayed
// record that succeeds is retroactively not counted as failed.
package batch

import (
	"fmt"
	"log"
	"strings"

	"github.com/fatih/color"

	"camino-lote/automation"
	"camino-lote/config"
	"camino-lote/coords"
	"camino-lote/processor"
	"camino-lote/records"
	"camino-lote/vpn"
)

// RecordProcessor is the per-record state machine.
type RecordProcessor interface {
	Process(rec records.Record) (processor.Outcome, error)
}

// Connectivity is the tunnel monitor consulted on streak trigger.
type Connectivity interface {
	IsUp() bool
	WaitUntilStable(evlog *vpn.EventLog) vpn.Event
}

// Clipboard is what the popup sentinel probe needs.
type Clipboard interface {
	Read() string
	Clear()
}

// Summary is the final (or partial, on abort) tally of a run.
type Summary struct {
	Total     int
	Skipped   int
	Succeeded int
	Failed    int
	Replays   int
	ReplaysOK int
	VPNEvents []vpn.Event
}

// Controller owns one batch run. Single-threaded: one UI session, one
// clipboard, one control loop.
type Controller struct {
	Processor RecordProcessor
	Monitor   Connectivity
	Driver    automation.Driver
	Clipboard Clipboard
	Coords    coords.Set
	Cfg       *config.Config
	Results   *records.ResultsWriter
	Failures  *records.FailuresWriter
	VPNLog    *vpn.EventLog
}

var (
	progressColor = color.New(color.FgCyan)
	successColor  = color.New(color.FgGreen)
	failureColor  = color.New(color.FgYellow)
	alertColor    = color.New(color.FgRed, color.Bold)
)

// Run processes every record and returns the summary. It stops early only on
// the operator failsafe or a persistence failure; per-record problems are
// absorbed by the recovery machinery.
func (c *Controller) Run(recs []records.Record) (Summary, error) {
	summary := Summary{Total: len(recs)}
	var streak []records.Record

	for i, rec := range recs {
		progressColor.Printf("[%d/%d] DNI %s (%d ok, %d fallidos)\n",
			i+1, len(recs), rec.DNI, summary.Succeeded, summary.Failed)

		outcome, err := c.Processor.Process(rec)
		if persistErr := c.persist(rec, outcome); persistErr != nil {
			return summary, persistErr
		}
		if err != nil {
			return summary, err
		}

		if outcome.OK() {
			successColor.Printf("  -> ok\n")
			summary.Succeeded++
			streak = streak[:0]
		} else {
			failureColor.Printf("  -> %s\n", outcome.FailureReason())
			summary.Failed++
			streak = append(streak, rec)

			if len(streak) >= c.Cfg.FailureThreshold {
				if err := c.recoverFromStreak(&summary, streak); err != nil {
					return summary, err
				}
				streak = streak[:0]
			}
		}

		c.Driver.Sleep(c.Cfg.Delays.BetweenRecords)
	}

	return summary, nil
}

// persist appends the outcome to the matching durable file before the next
// record is touched.
func (c *Controller) persist(rec records.Record, outcome processor.Outcome) error {
	if outcome.OK() {
		return c.Results.Append(rec, outcome.Address)
	}
	return c.Failures.Append(rec.DNI, outcome.FailureReason())
}

// recoverFromStreak classifies a threshold-length failure streak. Tunnel
// down: wait for stability, reactivate the UI, clear popups, and replay the
// whole streak. Tunnel up: probe for a blocked UI and unblock it if needed.
// Either way the streak resets, so a streak never exceeds the threshold
// without exactly one recovery cycle.
func (c *Controller) recoverFromStreak(summary *Summary, streak []records.Record) error {
	dnis := make([]string, len(streak))
	for i, r := range streak {
		dnis[i] = r.DNI
	}

	alertColor.Printf("%d fallos consecutivos - verificando conectividad\n", len(streak))
	log.Printf("streak of %d failures, affected DNIs: %s", len(streak), strings.Join(dnis, ", "))
	c.VPNLog.Printf("%d fallos consecutivos - DNIs: %s", len(streak), strings.Join(dnis, ", "))

	if !c.Monitor.IsUp() {
		event := c.Monitor.WaitUntilStable(c.VPNLog)
		event.AffectedDNIs = dnis

		if err := c.reconnectClick(); err != nil {
			return err
		}
		if err := c.clearPopups(); err != nil {
			return err
		}
		err := c.replayStreak(summary, &event, streak)
		summary.VPNEvents = append(summary.VPNEvents, event)
		return err
	}

	log.Printf("tunnel answers, checking for a blocked UI instead")
	c.VPNLog.Printf("VPN activa (ping OK) - verificando bloqueo de UI")

	blocked, err := c.uiBlocked()
	if err != nil {
		return err
	}
	if blocked {
		return c.unblockUI()
	}
	log.Printf("no UI block detected, treating streak as transient")
	return nil
}

// replayStreak reruns every record of the streak. A replay that succeeds
// credits the success counter and retroactively cancels the earlier failure.
func (c *Controller) replayStreak(summary *Summary, event *vpn.Event, streak []records.Record) error {
	log.Printf("replaying %d records that failed during the outage", len(streak))
	c.VPNLog.Printf("Reintentos iniciados - Total: %d", len(streak))

	for i, rec := range streak {
		progressColor.Printf("[reintento %d/%d] DNI %s\n", i+1, len(streak), rec.DNI)

		outcome, err := c.Processor.Process(rec)
		summary.Replays++
		if persistErr := c.persist(rec, outcome); persistErr != nil {
			return persistErr
		}
		if err != nil {
			return err
		}

		if outcome.OK() {
			summary.ReplaysOK++
			summary.Succeeded++
			summary.Failed--
			event.RetriesOK++
			c.VPNLog.Printf("  DNI %s: EXITO", rec.DNI)
		} else {
			event.RetriesFailed++
			c.VPNLog.Printf("  DNI %s: FALLO (%s)", rec.DNI, outcome.Kind)
		}
	}

	c.VPNLog.Printf("Reintentos finalizados - Exitosos: %d - Fallidos: %d",
		event.RetriesOK, event.RetriesFailed)
	return nil
}

// reconnectClick reactivates the application after the tunnel returns.
func (c *Controller) reconnectClick() error {
	p := c.Coords.Get("reconnect_click")
	c.VPNLog.Printf("Click reconexion (%d, %d) + Enter", p.X, p.Y)

	if err := c.Driver.Click(p, "reconexion", c.Cfg.Delays.Medium); err != nil {
		return err
	}
	if err := c.Driver.TapKey("enter"); err != nil {
		return err
	}
	c.Driver.Sleep(c.Cfg.Delays.Long)
	return nil
}

// popupProbe copies from the popup region and reports whether the sentinel
// text landed in the clipboard. The sentinel confirms the well-known
// disconnect popup is present and responding; its absence under a failing UI
// means something else is blocking the screen.
func (c *Controller) popupProbe() (bool, error) {
	c.Clipboard.Clear()
	c.Driver.Sleep(c.Cfg.Delays.Short)

	if err := c.Driver.RightClick(c.Coords.Get("popup_right_click"), "popup", c.Cfg.Delays.Medium); err != nil {
		return false, err
	}
	if err := c.Driver.Click(c.Coords.Get("popup_copy_menu"), "popup copiar", c.Cfg.Delays.ClipboardRetry); err != nil {
		return false, err
	}

	copied := c.Clipboard.Read()
	return strings.Contains(copied, c.Cfg.SentinelText), nil
}

// clearPopups dismisses the popups a disconnect leaves behind: probe for the
// sentinel, and if absent press confirm twice and retry, a bounded number of
// times. Not confirming is logged but not fatal; the replay will tell.
func (c *Controller) clearPopups() error {
	log.Printf("clearing disconnect popups")

	for attempt := 1; attempt <= c.Cfg.PopupClearAttempts; attempt++ {
		found, err := c.popupProbe()
		if err != nil {
			return err
		}
		if found {
			log.Printf("popup confirmed and cleared (attempt %d)", attempt)
			c.VPNLog.Printf("Popup limpiado (intento %d)", attempt)
			return nil
		}

		if err := c.Driver.TapKey("enter"); err != nil {
			return err
		}
		c.Driver.Sleep(c.Cfg.Delays.Medium)
		if err := c.Driver.TapKey("enter"); err != nil {
			return err
		}
		c.Driver.Sleep(c.Cfg.Delays.Medium)
	}

	log.Printf("popup not confirmed after %d attempts, continuing anyway", c.Cfg.PopupClearAttempts)
	c.VPNLog.Printf("Popup no confirmado tras %d intentos", c.Cfg.PopupClearAttempts)
	return nil
}

// uiBlocked probes once: sentinel present means the UI is alive.
func (c *Controller) uiBlocked() (bool, error) {
	found, err := c.popupProbe()
	if err != nil {
		return false, err
	}
	return !found, nil
}

// unblockUI runs the fixed recovery sequence for a locked screen:
// reconnect click, several close clicks, then home.
func (c *Controller) unblockUI() error {
	alertColor.Printf("UI bloqueada - ejecutando recuperacion\n")
	c.VPNLog.Printf("Sistema bloqueado - ejecutando recuperacion")

	if err := c.Driver.Click(c.Coords.Get("reconnect_click"), "reconexion", c.Cfg.Delays.Medium); err != nil {
		return err
	}
	for i := 0; i < c.Cfg.RecoveryCloseClicks; i++ {
		if err := c.Driver.Click(c.Coords.Get("close_btn"), fmt.Sprintf("cerrar #%d", i+1), c.Cfg.Delays.Medium); err != nil {
			return err
		}
	}
	if err := c.Driver.Click(c.Coords.Get("btn_house"), "inicio", c.Cfg.Delays.Long); err != nil {
		return err
	}

	c.VPNLog.Printf("Recuperacion ejecutada - reconexion + %dx cerrar + inicio", c.Cfg.RecoveryCloseClicks)
	return nil
}
