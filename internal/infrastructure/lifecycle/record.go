// Package lifecycle manages the completion server's process records,
// liveness probes, and stop sequence.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/pkg/filesystem"
)

const (
	pidFileName  = "zai.pid"
	metaFileName = "zai.meta.json"
)

// RecordKeeper reads and writes the on-disk process records under the run
// directory. Two records exist on purpose: the plain pid file survives even
// when JSON parsing breaks, and the metadata file carries the bound address.
type RecordKeeper struct {
	dir string
}

// NewRecordKeeper stores records under dir; an empty dir means the default
// run directory inside the data home.
func NewRecordKeeper(dir string) *RecordKeeper {
	if dir == "" {
		dir = filepath.Join(filesystem.DataDir(), "run")
	}
	return &RecordKeeper{dir: dir}
}

func (k *RecordKeeper) pidPath() string  { return filepath.Join(k.dir, pidFileName) }
func (k *RecordKeeper) metaPath() string { return filepath.Join(k.dir, metaFileName) }

// Write persists both records for a freshly started server.
func (k *RecordKeeper) Write(record domain.ServerRecord) error {
	if err := os.MkdirAll(k.dir, domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	pid := []byte(strconv.Itoa(record.PID))
	if err := os.WriteFile(k.pidPath(), pid, domain.RecordFilePermissions); err != nil {
		return fmt.Errorf("write pid record: %w", err)
	}
	meta, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := os.WriteFile(k.metaPath(), meta, domain.RecordFilePermissions); err != nil {
		return fmt.Errorf("write meta record: %w", err)
	}
	return nil
}

// ReadPID returns the pid record, or 0 when absent or unparseable.
func (k *RecordKeeper) ReadPID() int {
	data, err := os.ReadFile(k.pidPath())
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// ReadMeta returns the metadata record when present and well formed.
func (k *RecordKeeper) ReadMeta() (domain.ServerRecord, bool) {
	data, err := os.ReadFile(k.metaPath())
	if err != nil {
		return domain.ServerRecord{}, false
	}
	var record domain.ServerRecord
	if err := json.Unmarshal(data, &record); err != nil || record.PID <= 0 {
		return domain.ServerRecord{}, false
	}
	return record, true
}

// Remove deletes both records. Missing files are not errors; Remove runs
// unconditionally at the end of every stop.
func (k *RecordKeeper) Remove() {
	os.Remove(k.pidPath())
	os.Remove(k.metaPath())
}
