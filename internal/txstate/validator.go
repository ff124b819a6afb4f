package txstate

// Validator is a pure predicate over a full candidate state. Required
// validators block a commit; advisory ones only produce warnings.
type Validator[T any] struct {
	ID           string
	Validate     func(T) bool
	ErrorMessage string
	Required     bool
}

// Failure describes a validator that rejected a candidate.
type Failure struct {
	ID       string
	Message  string
	Required bool
}

// Report is the outcome of evaluating a validator set.
type Report struct {
	// Blocking is the first required validator that failed, if any.
	Blocking *Failure
	// Warnings lists every failed advisory validator.
	Warnings []Failure
}

// OK reports whether no required validator failed.
func (r Report) OK() bool { return r.Blocking == nil }

// Evaluate runs validators in order. Required validators stop being
// evaluated after the first failure; advisory validators always run.
func Evaluate[T any](validators []Validator[T], candidate T) Report {
	var r Report
	for _, v := range validators {
		if v.Required && r.Blocking != nil {
			continue
		}
		if v.Validate == nil || v.Validate(candidate) {
			continue
		}
		f := Failure{ID: v.ID, Message: v.ErrorMessage, Required: v.Required}
		if v.Required {
			r.Blocking = &f
			continue
		}
		r.Warnings = append(r.Warnings, f)
	}
	return r
}
