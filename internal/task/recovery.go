package task

import (
	"fmt"
	"unicode"
)

// Recovery is a named rollback action kept on a task's LIFO recovery stack.
// Recoveries run in strict last-pushed-first-run order.
type Recovery struct {
	name       string
	moduleName string
	object     string
	function   string
	params     ParamList
	callback   func(*Recovery)

	// task is a non-owning back-reference; see Job for the same convention.
	task *Task
}

// NewRecovery validates its string fields and constructs a Recovery that
// dispatches to (moduleName, object, function) in the recovery registry.
func NewRecovery(name, moduleName, object, function string, params []string) (*Recovery, error) {
	for _, n := range []string{name, moduleName, object, function} {
		if err := validateRecoveryName(n); err != nil {
			return nil, err
		}
	}
	pl, err := NewParamList(params)
	if err != nil {
		return nil, err
	}
	return &Recovery{
		name:       name,
		moduleName: moduleName,
		object:     object,
		function:   function,
		params:     pl,
	}, nil
}

// validateRecoveryName enforces the alphanumeric-plus-underscore rule
// applied to every name field, both at construction and again at run time.
func validateRecoveryName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: recovery name must not be empty", ErrInvalidParameter)
	}
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return fmt.Errorf("%w: recovery name %q must be alphanumeric or underscore", ErrInvalidParameter, name)
	}
	return nil
}

// Name returns the recovery's name, unique within its owning task.
func (r *Recovery) Name() string { return r.name }

// SetCallback installs a hook invoked immediately before the recovery body
// runs.
func (r *Recovery) SetCallback(cb func(*Recovery)) { r.callback = cb }

func (r *Recovery) setOwnerTask(t *Task) { r.task = t }

// run looks up and invokes the registered recovery function, passing the
// owning task followed by the string params.
func (r *Recovery) run() (string, error) {
	if r.task == nil {
		return "", &InvalidRecoveryError{Message: fmt.Sprintf("recovery %s: no owning task", r.name)}
	}
	for _, n := range []string{r.name, r.moduleName, r.object, r.function} {
		if err := validateRecoveryName(n); err != nil {
			return "", err
		}
	}
	fn, ok := lookupRecovery(r.moduleName, r.object, r.function)
	if !ok {
		return "", &InvalidRecoveryError{
			Message: fmt.Sprintf("recovery %s: no function registered for %s.%s.%s", r.name, r.moduleName, r.object, r.function),
		}
	}
	if r.callback != nil {
		r.callback(r)
	}
	return fn(r.task, r.params.List())
}

func (r *Recovery) String() string {
	return fmt.Sprintf("%s: %s->%s(%s)", r.name, r.object, r.function, r.params.String())
}

func (r *Recovery) metaFields() []metaField {
	return []metaField{
		{name: "name",
			get: func() string { return r.name },
			set: func(v string) error { r.name = v; return nil }},
		{name: "moduleName",
			get: func() string { return r.moduleName },
			set: func(v string) error { r.moduleName = v; return nil }},
		{name: "object",
			get: func() string { return r.object },
			set: func(v string) error { r.object = v; return nil }},
		{name: "function",
			get: func() string { return r.function },
			set: func(v string) error { r.function = v; return nil }},
		{name: "params",
			get: func() string { return r.params.String() },
			set: func(v string) error { r.params = ParseParamList(v); return nil }},
	}
}

// newPlaceholderRecovery builds the shell Recovery that loadTask appends
// before reading its metafile into it.
func newPlaceholderRecovery() *Recovery {
	return &Recovery{name: "load", moduleName: "load", object: "load", function: "load"}
}
