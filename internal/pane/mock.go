package pane

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ControllableMockPane is a test double whose liveness and exit code
// are driven explicitly by the test, rather than by a real child
// process.
type ControllableMockPane struct {
	id, domainID string
	cols, rows   int32

	mu       sync.Mutex
	alive    bool
	exitCode int
	hasExit  bool
	output   []byte
	writeLog [][]byte
}

// NewControllableMockPane returns a live pane with the given identity.
func NewControllableMockPane(id, domainID string, cols, rows int) *ControllableMockPane {
	return &ControllableMockPane{
		id:       id,
		domainID: domainID,
		cols:     int32(cols),
		rows:     int32(rows),
		alive:    true,
	}
}

func (p *ControllableMockPane) PaneID() string   { return p.id }
func (p *ControllableMockPane) DomainID() string { return p.domainID }

func (p *ControllableMockPane) Size() (int, int) {
	return int(atomic.LoadInt32(&p.cols)), int(atomic.LoadInt32(&p.rows))
}

func (p *ControllableMockPane) Resize(cols, rows int) {
	atomic.StoreInt32(&p.cols, int32(cols))
	atomic.StoreInt32(&p.rows, int32(rows))
}

func (p *ControllableMockPane) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := append([]byte(nil), b...)
	p.writeLog = append(p.writeLog, cp)
	return len(b), nil
}

// QueueOutput makes b available to the next Read call.
func (p *ControllableMockPane) QueueOutput(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = append(p.output, b...)
}

func (p *ControllableMockPane) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(b, p.output)
	p.output = p.output[n:]
	return n, nil
}

func (p *ControllableMockPane) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *ControllableMockPane) ExitStatus() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.hasExit
}

// SimulateExit marks the pane as no longer alive with the given exit
// code, as a real child process terminating would.
func (p *ControllableMockPane) SimulateExit(code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	p.exitCode = code
	p.hasExit = true
}

func (p *ControllableMockPane) Kill() {
	p.SimulateExit(-9)
}

// ControllableMockDomain spawns and tracks ControllableMockPanes,
// useful for driving orchestrator/runtime tests deterministically.
type ControllableMockDomain struct {
	id, name, kind string

	mu       sync.Mutex
	state    DomainState
	panes    map[string]*ControllableMockPane
	lastPane *ControllableMockPane
	nextID   int
}

// NewControllableMockDomain returns an attached mock domain.
func NewControllableMockDomain(id, name, kind string) *ControllableMockDomain {
	return &ControllableMockDomain{
		id:    id,
		name:  name,
		kind:  kind,
		state: DomainAttached,
		panes: make(map[string]*ControllableMockPane),
	}
}

func (d *ControllableMockDomain) DomainID() string   { return d.id }
func (d *ControllableMockDomain) DomainName() string { return d.name }
func (d *ControllableMockDomain) DomainType() string { return d.kind }
func (d *ControllableMockDomain) State() DomainState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
func (d *ControllableMockDomain) Detachable() bool { return true }

func (d *ControllableMockDomain) Attach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = DomainAttached
	return nil
}

func (d *ControllableMockDomain) Detach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = DomainDetached
	return nil
}

func (d *ControllableMockDomain) SpawnPane(cols, rows int, _ SpawnConfig) (Pane, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := fmt.Sprintf("%s-pane-%d", d.id, d.nextID)
	p := NewControllableMockPane(id, d.id, cols, rows)
	d.panes[id] = p
	d.lastPane = p
	return p, nil
}

func (d *ControllableMockDomain) GetPane(paneID string) (Pane, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.panes[paneID]
	return p, ok
}

func (d *ControllableMockDomain) ListPanes() []Pane {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Pane, 0, len(d.panes))
	for _, p := range d.panes {
		out = append(out, p)
	}
	return out
}

func (d *ControllableMockDomain) RemovePane(paneID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.panes[paneID]; !ok {
		return false
	}
	delete(d.panes, paneID)
	return true
}

// GetLastPane returns the most recently spawned pane, if any.
func (d *ControllableMockDomain) GetLastPane() (*ControllableMockPane, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastPane, d.lastPane != nil
}
