package task

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"
)

const (
	taskFileBase   = "task"
	jobFileBase    = "job"
	recoverFileBase = "recover"
	resultFileBase = "result"
)

func (t *Task) metaFields() []metaField {
	return []metaField{
		{name: "id",
			get: func() string { return t.id },
			set: func(v string) error { t.id = v; return nil }},
		{name: "name",
			get: func() string { return t.name },
			set: func(v string) error { t.name = v; return nil }},
		{name: "tag",
			get: func() string { return t.tag },
			set: func(v string) error { t.tag = v; return nil }},
		{name: "store",
			get: func() string { return t.store },
			set: func(v string) error { t.store = v; return nil }},
		{name: "recoveryPolicy",
			get: func() string { return string(t.recoveryPolicy) },
			set: func(v string) error { t.recoveryPolicy = RecoveryPolicy(v); return nil }},
		{name: "persistPolicy",
			get: func() string { return string(t.persistPolicy) },
			set: func(v string) error { t.persistPolicy = PersistPolicy(v); return nil }},
		{name: "cleanPolicy",
			get: func() string { return string(t.cleanPolicy) },
			set: func(v string) error { t.cleanPolicy = CleanPolicy(v); return nil }},
		{name: "priority",
			get: func() string { return string(t.priority) },
			set: func(v string) error { t.priority = Priority(v); return nil }},
		{name: "state",
			get: func() string { return string(t.state) },
			set: func(v string) error { t.state = State(v); return nil }},
		{name: "njobs",
			get: func() string { return strconv.Itoa(t.njobs) },
			set: func(v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return err
				}
				t.njobs = n
				return nil
			}},
		{name: "nrecoveries",
			get: func() string { return strconv.Itoa(t.nrecoveries) },
			set: func(v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return err
				}
				t.nrecoveries = n
				return nil
			}},
		{name: "metadataVersion",
			get: func() string { return strconv.Itoa(t.metadataVersion) },
			set: func(v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return err
				}
				t.metadataVersion = n
				return nil
			}},
	}
}

// save writes the task's full state to a temporary directory and then
// atomically swaps it in for storeDir, keeping one generation of backup
// in case the process crashes mid-swap:
//
//  1. create storeDir+TempExt
//  2. write the task, job, recovery and result metafiles into it
//  3. if storeDir already exists, rename it to storeDir+BackupExt
//  4. rename storeDir+TempExt to storeDir
//  5. fsync storeDir's parent directory
//  6. remove storeDir+BackupExt
//
// A crash between steps 3 and 4 leaves the temp directory and the backup
// on disk, and a crash between steps 4 and 6 leaves both storeDir and its
// backup; loadTask tries storeDir, then storeDir+TempExt, then
// storeDir+BackupExt, in that order, so recovery always finds the newest
// complete generation.
func (t *Task) save(storeDir string) error {
	t.njobs = len(t.jobs)
	t.nrecoveries = len(t.recoveries)
	tempDir := storeDir + TempExt
	if err := mkdirAll(tempDir); err != nil {
		return &PersistError{Message: err.Error()}
	}

	if err := writeMetaFile(filepath.Join(tempDir, taskFileBase+TaskExt), t.metaFields()); err != nil {
		return &PersistError{Message: err.Error()}
	}
	for i, j := range t.jobs {
		name := fmt.Sprintf("%s%s%d%s", jobFileBase, NumSeparator, i, JobExt)
		if err := writeMetaFile(filepath.Join(tempDir, name), j.metaFields()); err != nil {
			return &PersistError{Message: err.Error()}
		}
	}
	for i, r := range t.recoveries {
		name := fmt.Sprintf("%s%s%d%s", recoverFileBase, NumSeparator, i, RecoverExt)
		if err := writeMetaFile(filepath.Join(tempDir, name), r.metaFields()); err != nil {
			return &PersistError{Message: err.Error()}
		}
	}
	if err := writeMetaFile(filepath.Join(tempDir, resultFileBase+ResultExt), t.result.metaFields()); err != nil {
		return &PersistError{Message: err.Error()}
	}

	backupDir := storeDir + BackupExt
	if pathExists(storeDir) {
		if err := renamePath(storeDir, backupDir); err != nil {
			return &PersistError{Message: err.Error()}
		}
	}
	if err := renamePath(tempDir, storeDir); err != nil {
		return &PersistError{Message: err.Error()}
	}
	if err := fsyncDir(filepath.Dir(storeDir)); err != nil {
		t.logger.Warn("fsync parent directory failed", "dir", filepath.Dir(storeDir), "error", err)
	}
	if err := removePath(backupDir); err != nil {
		t.logger.Warn("removing stale backup directory failed", "dir", backupDir, "error", err)
	}
	return nil
}

// persist writes the task's current state to its configured store
// directory, honoring PersistNone by doing nothing.
func (t *Task) persist() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.persistPolicy == PersistNone || t.store == "" {
		return nil
	}
	return t.save(t.store)
}

// load reads a task's full state back from dir, built by a previous save.
func (t *Task) load(dir string, logger hclog.Logger) error {
	if err := readMetaFile(logger, filepath.Join(dir, taskFileBase+TaskExt), t.metaFields()); err != nil {
		return err
	}

	for i := 0; i < t.njobs; i++ {
		name := fmt.Sprintf("%s%s%d%s", jobFileBase, NumSeparator, i, JobExt)
		j := newPlaceholderJob()
		if err := readMetaFile(logger, filepath.Join(dir, name), j.metaFields()); err != nil {
			return err
		}
		j.setOwnerTask(t)
		t.jobs = append(t.jobs, j)
		t.jobNames.Insert(j.name)
	}

	for i := 0; i < t.nrecoveries; i++ {
		name := fmt.Sprintf("%s%s%d%s", recoverFileBase, NumSeparator, i, RecoverExt)
		r := newPlaceholderRecovery()
		if err := readMetaFile(logger, filepath.Join(dir, name), r.metaFields()); err != nil {
			return err
		}
		r.setOwnerTask(t)
		t.recoveries = append(t.recoveries, r)
		t.recoveryNames.Insert(r.name)
	}

	t.result = NewResult()
	resultPath := filepath.Join(dir, resultFileBase+ResultExt)
	if pathExists(resultPath) {
		if err := readMetaFile(logger, resultPath, t.result.metaFields()); err != nil {
			return err
		}
	}
	return nil
}

// LoadTask reconstructs a Task previously persisted under store/id,
// trying the live directory, then its in-flight temp directory, then its
// backup, in that order — the same order a crash could have left things
// in after an interrupted save.
func LoadTask(store, id string, logger hclog.Logger) (*Task, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	base := filepath.Join(store, id)
	candidates := []string{base, base + TempExt, base + BackupExt}

	var lastErr error
	for _, dir := range candidates {
		if !pathExists(dir) {
			continue
		}
		t := &Task{
			jobNames:      set.New[string](8),
			recoveryNames: set.New[string](8),
			result:        NewResult(),
			logger:        logger.Named("task"),
			config:        DefaultConfig(),
		}
		if err := t.load(dir, logger); err != nil {
			lastErr = err
			continue
		}
		t.logger = t.logger.With("task_id", t.id, "task_name", t.name)
		return t, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &MetaDataLoadError{Message: fmt.Sprintf("no persisted task found for %s/%s", store, id)}
}

// clean removes a task's store directory and any leftover temp/backup
// generations, attempting all three even if one fails so a stuck backup
// directory doesn't mask cleanup of the others.
func (t *Task) clean() error {
	t.mu.Lock()
	storeDir := t.store
	t.mu.Unlock()
	if storeDir == "" {
		return nil
	}
	var result *multierror.Error
	for _, dir := range []string{storeDir, storeDir + TempExt, storeDir + BackupExt} {
		if err := removePath(dir); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if result.ErrorOrNil() != nil {
		return &DirError{Message: result.Error()}
	}
	return nil
}

// Clean removes the task's on-disk state according to its clean policy,
// unconditionally if force is true.
func (t *Task) Clean(force bool) error {
	t.mu.Lock()
	policy := t.cleanPolicy
	done := t.state.IsDone()
	t.mu.Unlock()
	if !force && (policy == CleanNone || !done) {
		return nil
	}
	return t.clean()
}

// ResourceKeys lists the resource keys persisted under a task's store
// directory.
func ResourceKeys(storeDir string) ([]string, error) {
	return globResourceFiles(storeDir)
}
