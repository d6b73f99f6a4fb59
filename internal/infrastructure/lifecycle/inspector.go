package lifecycle

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/doeshing/zai-go/internal/ports"
)

// SystemInspector implements process probes against the real OS using
// signal 0, lsof, and ps.
type SystemInspector struct{}

// NewSystemInspector returns an inspector backed by the host process table.
func NewSystemInspector() *SystemInspector {
	return &SystemInspector{}
}

// Alive probes the pid with signal 0. EPERM still means the process exists.
func (SystemInspector) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}

// PidsOnPort lists processes holding the TCP port in LISTEN state.
func (SystemInspector) PidsOnPort(port int) []int {
	out, err := exec.Command("lsof", "-nP", "-iTCP:"+strconv.Itoa(port), "-sTCP:LISTEN", "-t").Output()
	if err != nil {
		// lsof exits non-zero when nothing listens; treat as empty.
		return nil
	}
	return parsePids(string(out))
}

// PidsMatching scans the process table for command lines containing the
// pattern. The calling process is excluded so a status probe never reports
// itself as the server.
func (SystemInspector) PidsMatching(pattern string) []int {
	out, err := exec.Command("ps", "-eo", "pid=,args=").Output()
	if err != nil {
		return nil
	}
	self := os.Getpid()
	var pids []int
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
		if len(fields) != 2 || !strings.Contains(fields[1], pattern) {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil || pid == self {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// Signal delivers sig to the pid.
func (SystemInspector) Signal(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

func parsePids(out string) []int {
	var pids []int
	for _, line := range strings.Split(out, "\n") {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

var _ ports.ProcessInspector = (*SystemInspector)(nil)
