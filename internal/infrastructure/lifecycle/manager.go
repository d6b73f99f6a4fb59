package lifecycle

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"syscall"
	"time"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

// processPattern identifies detached completion servers in the process
// table when every on-disk record has gone stale.
const processPattern = "zai serve"

// Status describes what the liveness probes found.
type Status struct {
	State domain.ServerState
	PIDs  []int
	Addr  string
}

// Manager answers "is the server up" and "make it stop" for the completion
// service, tolerating stale or missing records at every step.
type Manager struct {
	records   *RecordKeeper
	inspector ports.ProcessInspector
	logger    ports.Logger
	client    *http.Client

	host string
	port int

	gracefulTimeout time.Duration
	forcedTimeout   time.Duration
	pollInterval    time.Duration
}

// NewManager builds a manager for the server configured at host:port.
func NewManager(records *RecordKeeper, inspector ports.ProcessInspector, logger ports.Logger, host string, port int) *Manager {
	return &Manager{
		records:         records,
		inspector:       inspector,
		logger:          logger,
		client:          &http.Client{Timeout: domain.HealthProbeTimeout},
		host:            host,
		port:            port,
		gracefulTimeout: domain.GracefulStopTimeout,
		forcedTimeout:   domain.ForcedStopTimeout,
		pollInterval:    domain.StopPollInterval,
	}
}

// Healthy reports whether something on the configured address answers the
// health endpoint.
func (m *Manager) Healthy() bool {
	resp, err := m.client.Get(fmt.Sprintf("http://%s:%d/health", m.host, m.port))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Check runs the liveness probes in order of trustworthiness and reports the
// first positive finding. The strategies deliberately overlap so that one
// stale artifact (a leftover pid file, a wiped run dir) never hides a live
// server.
func (m *Manager) Check() Status {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	if pid := m.records.ReadPID(); pid > 0 && m.inspector.Alive(pid) {
		return Status{State: domain.ServerRunning, PIDs: []int{pid}, Addr: addr}
	}
	if m.Healthy() {
		pids := m.inspector.PidsOnPort(m.port)
		return Status{State: domain.ServerRunning, PIDs: pids, Addr: addr}
	}
	if meta, ok := m.records.ReadMeta(); ok && m.inspector.Alive(meta.PID) {
		return Status{State: domain.ServerRunning, PIDs: []int{meta.PID}, Addr: meta.Addr()}
	}
	if pids := m.inspector.PidsMatching(processPattern); len(pids) > 0 {
		return Status{State: domain.ServerRunning, PIDs: pids, Addr: addr}
	}
	return Status{State: domain.ServerStopped, Addr: addr}
}

// Stop terminates every process that any probe attributes to the server.
// It escalates from SIGTERM to SIGKILL and always removes the on-disk
// records, so a follow-up stop starts from a clean slate.
func (m *Manager) Stop() domain.StopOutcome {
	candidates := m.collectCandidates()
	defer m.records.Remove()

	if len(candidates) == 0 && !m.Healthy() {
		return domain.StopClean
	}

	m.signalAll(candidates, syscall.SIGTERM)
	if m.awaitDown(candidates, m.gracefulTimeout) {
		return domain.StopClean
	}

	m.logger.Warn("server survived graceful stop, escalating", map[string]interface{}{
		"pids": candidates,
	})
	m.signalAll(candidates, syscall.SIGKILL)
	if m.awaitDown(candidates, m.forcedTimeout) {
		return domain.StopClean
	}
	return domain.StopWithIssue
}

// collectCandidates unions every pid the probes can attribute to the server,
// never including the calling process itself.
func (m *Manager) collectCandidates() []int {
	self := os.Getpid()
	seen := make(map[int]bool)
	add := func(pids ...int) {
		for _, pid := range pids {
			if pid > 0 && pid != self {
				seen[pid] = true
			}
		}
	}
	add(m.records.ReadPID())
	add(m.inspector.PidsOnPort(m.port)...)
	if meta, ok := m.records.ReadMeta(); ok {
		add(meta.PID)
	}
	add(m.inspector.PidsMatching(processPattern)...)

	candidates := make([]int, 0, len(seen))
	for pid := range seen {
		candidates = append(candidates, pid)
	}
	sort.Ints(candidates)
	return candidates
}

func (m *Manager) signalAll(pids []int, sig syscall.Signal) {
	for _, pid := range pids {
		if !m.inspector.Alive(pid) {
			continue
		}
		if err := m.inspector.Signal(pid, sig); err != nil {
			m.logger.Debug("signal delivery failed", map[string]interface{}{
				"pid":    pid,
				"signal": int(sig),
			})
		}
	}
}

// awaitDown polls until no candidate is alive and the health endpoint stops
// answering, or the deadline passes.
func (m *Manager) awaitDown(pids []int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !m.anyAlive(pids) && !m.Healthy() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(m.pollInterval)
	}
}

func (m *Manager) anyAlive(pids []int) bool {
	for _, pid := range pids {
		if m.inspector.Alive(pid) {
			return true
		}
	}
	return false
}
