package task

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

func TestMetaFile_WriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample"+TaskExt)

	name, value := "unset", "unset"
	writeFields := []metaField{
		{name: "name", get: func() string { return "widget" }},
		{name: "value", get: func() string { return "42" }},
	}
	must.NoError(t, writeMetaFile(path, writeFields))

	readFields := []metaField{
		{name: "name", set: func(v string) error { name = v; return nil }},
		{name: "value", set: func(v string) error { value = v; return nil }},
	}
	must.NoError(t, readMetaFile(hclog.NewNullLogger(), path, readFields))
	must.Eq(t, "widget", name)
	must.Eq(t, "42", value)
}

func TestMetaFile_SkipsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample"+TaskExt)
	must.NoError(t, writeMetaFile(path, []metaField{
		{name: "known", get: func() string { return "yes" }},
		{name: "mystery", get: func() string { return "???" }},
	}))

	known := ""
	err := readMetaFile(hclog.NewNullLogger(), path, []metaField{
		{name: "known", set: func(v string) error { known = v; return nil }},
	})
	must.NoError(t, err)
	must.Eq(t, "yes", known)
}
