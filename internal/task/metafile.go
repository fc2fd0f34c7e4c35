package task

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// KeySeparator divides a metafile line's field name from its value.
const KeySeparator = "="

// NumSeparator joins a base metafile name with its numeric suffix, e.g.
// job.0, job.1 for a task's list of jobs.
const NumSeparator = "."

// Extensions for the files a Task persists under its store directory.
const (
	TaskExt     = ".task"
	JobExt      = ".job"
	RecoverExt  = ".recover"
	ResultExt   = ".result"
	ResourceExt = ".resource"
	TempExt     = ".temp"
	BackupExt   = ".backup"
)

// metaField describes one field's persisted representation: a line name,
// a getter producing its current string value, and a setter parsing a
// loaded string back into the field.
//
// This replaces the original implementation's approach of reflecting over
// each object's __dict__ and reconstructing values with the attribute's
// declared type constructor; Go has no equivalent reflection-free
// shortcut, so each persisted type declares its own field list explicitly.
type metaField struct {
	name string
	get  func() string
	set  func(string) error
}

// writeMetaFile writes fields to path as "name = value" lines, one per
// field, in the given order.
func writeMetaFile(path string, fields []metaField) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return &MetaDataSaveError{Message: err.Error()}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, field := range fields {
		if _, err := fmt.Fprintf(w, "%s %s %s\n", field.name, KeySeparator, field.get()); err != nil {
			return &MetaDataSaveError{Message: err.Error()}
		}
	}
	if err := w.Flush(); err != nil {
		return &MetaDataSaveError{Message: err.Error()}
	}
	return f.Sync()
}

// readMetaFile reads path's "name = value" lines and applies each to the
// matching field's setter. Unknown field names and malformed lines are
// logged and skipped rather than treated as fatal, so that a metafile
// written by a newer version of the daemon still loads under an older one.
// A line that doesn't split into exactly name and value on KeySeparator
// (none found, or more than one) is malformed and skipped the same way.
func readMetaFile(logger hclog.Logger, path string, fields []metaField) error {
	f, err := os.Open(path)
	if err != nil {
		return &MetaDataLoadError{Message: err.Error()}
	}
	defer f.Close()

	byName := make(map[string]metaField, len(fields))
	for _, field := range fields {
		byName[field.name] = field
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, KeySeparator)
		if len(parts) != 2 {
			if logger != nil {
				logger.Warn("skipping malformed metafile line", "path", path, "line", line)
			}
			continue
		}
		name, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		field, ok := byName[name]
		if !ok {
			if logger != nil {
				logger.Warn("skipping unknown metafile field", "path", path, "field", name)
			}
			continue
		}
		if err := field.set(value); err != nil {
			return &MetaDataLoadError{Message: fmt.Sprintf("field %s: %v", name, err)}
		}
	}
	if err := scanner.Err(); err != nil {
		return &MetaDataLoadError{Message: err.Error()}
	}
	return nil
}
