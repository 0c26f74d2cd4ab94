package level

// Result is the outcome of a negotiation: the highest safe level and, when
// that is below the requested level, the ordered reasons for each drop.
type Result struct {
	Requested        Level    `json:"requested_level"`
	Selected         Level    `json:"selected_level"`
	DowngradeReasons []string `json:"downgrade_reasons"`
}

// Downgraded reports whether a lower level than requested was selected.
func (r Result) Downgraded() bool {
	return r.Selected < r.Requested
}

// Negotiate selects the highest feasible collection level at or below the
// requested one. It is pure and deterministic: capability probing happens
// before this call and the snapshot is immutable for the cycle.
//
// Starting at the requested level, the engine checklist for the candidate
// level is evaluated; every missing capability is appended to the reason
// list (never deduplicated, in check order) and the candidate drops one
// level. The floor is Level 0, or Unavailable when even the Level 0
// checklist fails.
func Negotiate(cl Checklist, requested Level, snap Snapshot) Result {
	result := Result{Requested: requested, Selected: requested}

	for candidate := requested; candidate >= Level0; candidate-- {
		eval := cl.Evaluate(candidate, snap)
		if eval.OK {
			result.Selected = candidate
			return result
		}
		result.DowngradeReasons = append(result.DowngradeReasons, eval.Reasons...)
		result.Selected = candidate - 1
	}

	result.Selected = Unavailable
	return result
}
