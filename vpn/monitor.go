// Package vpn monitors the tunnel the target application depends on. The
// application itself gives no indication that its backend went away; the only
// reliable signal is an echo probe against a host inside the tunnel.
package vpn

import (
	"log"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Pinger is a single bounded-timeout echo probe.
type Pinger interface {
	Ping(host string, timeout time.Duration) bool
}

// ICMPPinger probes via pro-bing. Privileged mode is required on Windows and
// avoids the UDP fallback being silently filtered on many corporate networks.
type ICMPPinger struct{}

func (ICMPPinger) Ping(host string, timeout time.Duration) bool {
	p, err := probing.NewPinger(host)
	if err != nil {
		log.Printf("vpn: pinger setup failed: %v", err)
		return false
	}
	p.SetPrivileged(true)
	p.Count = 1
	p.Timeout = timeout

	if err := p.Run(); err != nil {
		return false
	}
	return p.Statistics().PacketsRecv > 0
}

// Event records one down-to-stable connectivity cycle.
type Event struct {
	Start        time.Time
	End          time.Time
	PingAttempts int

	AffectedDNIs  []string
	RetriesOK     int
	RetriesFailed int
}

func (e Event) Duration() time.Duration { return e.End.Sub(e.Start) }

// Monitor polls a fixed host and confirms stability before declaring the
// connection usable again.
type Monitor struct {
	Host            string
	PingTimeout     time.Duration
	CheckInterval   time.Duration
	StabilityChecks int
	StabilityDelay  time.Duration
	RetryCooldown   time.Duration
	Pinger          Pinger

	// sleep is swapped out by tests.
	sleep func(time.Duration)
}

func NewMonitor(host string, pingTimeout, checkInterval time.Duration, stabilityChecks int, stabilityDelay, retryCooldown time.Duration) *Monitor {
	return &Monitor{
		Host:            host,
		PingTimeout:     pingTimeout,
		CheckInterval:   checkInterval,
		StabilityChecks: stabilityChecks,
		StabilityDelay:  stabilityDelay,
		RetryCooldown:   retryCooldown,
		Pinger:          ICMPPinger{},
		sleep:           time.Sleep,
	}
}

// IsUp performs one probe. It never blocks past the configured timeout.
func (m *Monitor) IsUp() bool {
	return m.Pinger.Ping(m.Host, m.PingTimeout)
}

// WaitUntilStable blocks until the host answers and then keeps answering for
// StabilityChecks consecutive confirmation probes. A failed confirmation
// restarts the whole stabilization after a cooldown; connections flap right
// after reconnecting, and resuming on the first answered probe loses records.
// There is no overall timeout: the batch must not abandon work over a
// transient outage. The loop is flat, not recursive, so an outage of any
// length cannot grow the stack.
func (m *Monitor) WaitUntilStable(evlog *EventLog) Event {
	start := time.Now()
	log.Printf("vpn: DOWN (%s) - processing halted until reconnection", m.Host)
	evlog.Printf("VPN CAIDA - procesamiento detenido (host %s)", m.Host)

	attempts := 0
	for {
		for !m.IsUp() {
			attempts++
			log.Printf("vpn: ping #%d failed, retrying in %v", attempts, m.CheckInterval)
			evlog.Printf("Ping #%d - FALLO", attempts)
			m.sleep(m.CheckInterval)
		}

		end := time.Now()
		log.Printf("vpn: host answering after %v (%d pings), confirming stability", end.Sub(start).Round(time.Second), attempts)
		evlog.Printf("VPN RECONECTADA - Duracion: %s - Pings: %d", formatDuration(end.Sub(start)), attempts)

		stable := true
		for i := 1; i <= m.StabilityChecks; i++ {
			m.sleep(m.StabilityDelay)
			if m.IsUp() {
				evlog.Printf("Ping estabilidad %d/%d: OK", i, m.StabilityChecks)
				continue
			}
			log.Printf("vpn: stability probe %d/%d failed, connection still flapping", i, m.StabilityChecks)
			evlog.Printf("Ping estabilidad %d/%d: FALLO", i, m.StabilityChecks)
			stable = false
			break
		}

		if stable {
			log.Printf("vpn: connection stable, resuming")
			evlog.Printf("Conexion ESTABLE - procesamiento reanudado")
			return Event{Start: start, End: end, PingAttempts: attempts}
		}

		evlog.Printf("Conexion inestable - esperando %v", m.RetryCooldown)
		m.sleep(m.RetryCooldown)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return d.String()
}
