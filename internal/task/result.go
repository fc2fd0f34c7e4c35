package task

import "strconv"

// Result is a task's outcome: a numeric code, a human-readable message, and
// a free-form result string (the last job's return value, or the prepare
// function's return value when no jobs were scheduled).
type Result struct {
	Code    int
	Message string
	Result  string
}

// NewResult returns the default result a Task starts with.
func NewResult() Result {
	return Result{Code: 0, Message: "Task is initializing", Result: ""}
}

func (r *Result) metaFields() []metaField {
	return []metaField{
		{name: "code",
			get: func() string { return strconv.Itoa(r.Code) },
			set: func(v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return err
				}
				r.Code = n
				return nil
			}},
		{name: "message",
			get: func() string { return r.Message },
			set: func(v string) error { r.Message = v; return nil }},
		{name: "result",
			get: func() string { return r.Result },
			set: func(v string) error { r.Result = v; return nil }},
	}
}
