package processor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"camino-lote/automation"
	"camino-lote/config"
	"camino-lote/coords"
	"camino-lote/records"
)

// fakeDriver records every action label and can fail a specific one.
type fakeDriver struct {
	actions   []string
	failLabel string
	failErr   error
}

func (d *fakeDriver) do(kind, label string) error {
	d.actions = append(d.actions, kind+":"+label)
	if d.failLabel != "" && label == d.failLabel {
		return d.failErr
	}
	return nil
}

func (d *fakeDriver) Click(p coords.Point, label string, settle time.Duration) error {
	return d.do("click", label)
}
func (d *fakeDriver) RightClick(p coords.Point, label string, settle time.Duration) error {
	return d.do("rclick", label)
}
func (d *fakeDriver) TypeText(text string) error { return d.do("type", text) }
func (d *fakeDriver) TapKey(key string) error    { return d.do("key", key) }
func (d *fakeDriver) SelectAll() error           { return d.do("key", "ctrl+a") }
func (d *fakeDriver) Sleep(time.Duration)        {}

func (d *fakeDriver) count(action string) int {
	n := 0
	for _, a := range d.actions {
		if a == action {
			n++
		}
	}
	return n
}

// fakeClipboard returns queued values on successive reads.
type fakeClipboard struct {
	reads  []string
	idx    int
	clears int
	panics bool
}

func (c *fakeClipboard) Read() string {
	if c.panics {
		panic("clipboard backend gone")
	}
	if c.idx >= len(c.reads) {
		return ""
	}
	v := c.reads[c.idx]
	c.idx++
	return v
}

func (c *fakeClipboard) Clear()                   { c.clears++ }
func (c *fakeClipboard) ReadWithRetry(int) string { return c.Read() }

func testSet() coords.Set {
	set := coords.Set{}
	for i, key := range coords.Required {
		set[key] = coords.Point{X: 10 + i, Y: 20 + i}
	}
	return set
}

func newTestProcessor(driver *fakeDriver, clip *fakeClipboard) *Processor {
	cfg := &config.Config{Delays: config.DefaultDelays(), ClipboardAttempts: 3}
	cfg.Delays = config.Delays{} // no real sleeping in tests
	return New(driver, clip, testSet(), cfg)
}

func rec(dni, name string) records.Record {
	return records.Record{DNI: dni, Name: name, Row: map[string]string{"DNI": dni}}
}

func TestProcessSuccess(t *testing.T) {
	driver := &fakeDriver{}
	clip := &fakeClipboard{reads: []string{"PEREZ JUAN", "Av. Siempre Viva 123"}}
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("30111222", "Juan Perez"))
	require.NoError(t, err)
	require.Equal(t, Success, outcome.Kind)
	require.Equal(t, "Av. Siempre Viva 123", outcome.Address)

	require.Equal(t, 1, driver.count("click:cerrar"), "close must run exactly once")
	require.Equal(t, 1, driver.count("type:30111222"))
	require.Equal(t, 1, driver.count("click:abrir detalle"))
}

func TestProcessNoDataCopied(t *testing.T) {
	driver := &fakeDriver{}
	clip := &fakeClipboard{} // every read empty
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("27333444", "Maria Lopez"))
	require.NoError(t, err)
	require.Equal(t, NoDataCopied, outcome.Kind)

	require.Equal(t, 1, driver.count("click:cerrar"), "close runs on the error path too")
	require.Zero(t, driver.count("click:abrir detalle"), "detail must not open without a name")
}

func TestProcessWhitespaceNameIsNoData(t *testing.T) {
	driver := &fakeDriver{}
	clip := &fakeClipboard{reads: []string{"  \r\n "}}
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("27333444", "Maria Lopez"))
	require.NoError(t, err)
	require.Equal(t, NoDataCopied, outcome.Kind, "whitespace-only copy means nothing was copied, not a mismatch")
	require.Equal(t, 1, driver.count("click:cerrar"))
}

func TestProcessNameMismatch(t *testing.T) {
	driver := &fakeDriver{}
	clip := &fakeClipboard{reads: []string{"CARLA DOMINGUEZ"}}
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("30111222", "Juan Perez"))
	require.NoError(t, err)
	require.Equal(t, NameMismatch, outcome.Kind)
	require.Equal(t, "CARLA DOMINGUEZ", outcome.Detail)
	require.Equal(t, 1, driver.count("click:cerrar"))
}

func TestProcessAddressRetryAfterDialog(t *testing.T) {
	driver := &fakeDriver{}
	// Name OK, first address read empty (dialog covering the view), second OK.
	clip := &fakeClipboard{reads: []string{"PEREZ JUAN", "", "Calle Falsa 742"}}
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("30111222", "Juan Perez"))
	require.NoError(t, err)
	require.Equal(t, Success, outcome.Kind)
	require.Equal(t, "Calle Falsa 742", outcome.Address)

	require.Equal(t, 1, driver.count("click:cerrar cartel"), "dialog dismissal expected")
	require.Equal(t, 2, driver.count("click:copiar"), "copy sequence repeated exactly once")
	require.Equal(t, 1, driver.count("click:cerrar"))
}

func TestProcessAddressCopyFailed(t *testing.T) {
	driver := &fakeDriver{}
	clip := &fakeClipboard{reads: []string{"PEREZ JUAN"}} // both address reads empty
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("30111222", "Juan Perez"))
	require.NoError(t, err)
	require.Equal(t, AddressCopyFailed, outcome.Kind)

	require.Equal(t, 2, driver.count("click:copiar"), "single retry, no more")
	require.Equal(t, 1, driver.count("click:cerrar"))
}

func TestProcessDriverErrorBecomesSystemError(t *testing.T) {
	driver := &fakeDriver{failLabel: "primera cuenta", failErr: errors.New("menu did not open")}
	clip := &fakeClipboard{}
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("30111222", "Juan Perez"))
	require.NoError(t, err, "driver errors must not escape the record boundary")
	require.Equal(t, SystemError, outcome.Kind)
	require.Contains(t, outcome.Detail, "menu did not open")
	require.Equal(t, 1, driver.count("click:cerrar"))
}

func TestProcessFailsafePropagates(t *testing.T) {
	driver := &fakeDriver{failLabel: "input DNI", failErr: automation.ErrFailsafe}
	clip := &fakeClipboard{}
	p := newTestProcessor(driver, clip)

	_, err := p.Process(rec("30111222", "Juan Perez"))
	require.ErrorIs(t, err, automation.ErrFailsafe)
	require.Equal(t, 1, driver.count("click:cerrar"), "close attempted even on abort")
}

func TestProcessPanicBecomesSystemError(t *testing.T) {
	driver := &fakeDriver{}
	clip := &fakeClipboard{panics: true}
	p := newTestProcessor(driver, clip)

	outcome, err := p.Process(rec("30111222", "Juan Perez"))
	require.NoError(t, err)
	require.Equal(t, SystemError, outcome.Kind)
	require.Contains(t, outcome.Detail, "clipboard backend gone")
	require.Equal(t, 1, driver.count("click:cerrar"))
}

func TestFailureReasons(t *testing.T) {
	require.Contains(t, Outcome{Kind: NoDataCopied}.FailureReason(), "no creado")
	require.Contains(t, Outcome{Kind: NameMismatch}.FailureReason(), "no creado")
	require.Contains(t, Outcome{Kind: AddressCopyFailed}.FailureReason(), "direccion")
	require.Contains(t, Outcome{Kind: SystemError, Detail: "boom"}.FailureReason(), "boom")
	require.Empty(t, Outcome{Kind: Success}.FailureReason())
}
