package aggregate

// Error kinds recorded on entries. These are data, not Go errors: a caller
// asserting on partial success inspects entries rather than catching
// anything.
const (
	KindConnection = "connection_error"
	KindQuery      = "query_error"
	KindNotFound   = "tenant_not_found"
)

// Entry is one tenant's outcome. Exactly one of Rows or Err is meaningful;
// an entry is present for every tenant considered at dispatch time, so no
// tenant is silently dropped.
type Entry[T any] struct {
	TenantID   int64  `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Rows       []T    `json:"rows,omitempty"`
	Err        string `json:"error,omitempty"`
	ErrKind    string `json:"error_kind,omitempty"`
}

func (e Entry[T]) OK() bool {
	return e.Err == ""
}

type Result[T any] struct {
	Entries []Entry[T] `json:"entries"`
}

// Rows flattens the successful entries' rows in entry order. Failed entries
// contribute nothing; they stay visible in Entries for diagnostics.
func (r *Result[T]) Rows() []T {
	out := []T{}
	for _, e := range r.Entries {
		if e.OK() {
			out = append(out, e.Rows...)
		}
	}
	return out
}

// Failed returns the entries that carry an error.
func (r *Result[T]) Failed() []Entry[T] {
	out := []Entry[T]{}
	for _, e := range r.Entries {
		if !e.OK() {
			out = append(out, e)
		}
	}
	return out
}

// Reduce folds fn over the successful entries only. With zero successful
// entries the initial value comes back unchanged, so "all tenants failed"
// and "no tenants" reduce to the same zero baseline.
func Reduce[T, A any](r *Result[T], init A, fn func(A, Entry[T]) A) A {
	acc := init
	for _, e := range r.Entries {
		if e.OK() {
			acc = fn(acc, e)
		}
	}
	return acc
}
