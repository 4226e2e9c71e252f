package domain

// Patch is a decoded write payload. It stays untyped on purpose: multiple UI
// versions may be deployed at once, so unknown fields and wrong types are
// silently ignored instead of rejected.
type Patch map[string]any

// Merge applies the whitelisted fields of patch on top of prev and returns
// the resulting state. Unrecognized enum values and non-string fields keep
// the previous value; source is always forced to "url". The caller stamps
// UpdatedAt.
func Merge(prev OverlayState, patch Patch) OverlayState {
	next := prev

	next.Visible = truthy(patch["visible"])

	if t, ok := patch["type"].(string); ok && ValidType(t) {
		next.Type = t
	}
	if p, ok := patch["position"].(string); ok && validPosition(p) {
		next.Position = p
	}
	if f, ok := patch["fit"].(string); ok && validFit(f) {
		next.Fit = f
	}

	if u, ok := patch["url"].(string); ok {
		next.URL = u
	}
	if t, ok := patch["title"].(string); ok {
		next.Title = t
	}
	if t, ok := patch["text"].(string); ok {
		next.Text = t
	}
	if c, ok := patch["bgColor"].(string); ok {
		next.BgColor = c
	}
	if c, ok := patch["textColor"].(string); ok {
		next.TextColor = c
	}

	next.Source = SourceURL

	return next
}

// truthy mirrors the coercion the admin clients rely on: a missing or falsy
// visible field hides the overlay, anything else shows it.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
