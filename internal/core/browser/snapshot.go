package browser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// interactiveRoles mirrors the set spec.md's compaction rule keeps: every
// role a UID can meaningfully reference. Grounded on the teacher's
// isInteractiveRole allowlist, extended with the roles spec.md names
// explicitly (slider, switch, combobox, searchbox) plus "heading" and the
// root, which compaction keeps for orientation even though they aren't
// clickable.
var interactiveRoles = map[string]bool{
	"link": true, "button": true, "textbox": true, "checkbox": true,
	"radio": true, "combobox": true, "searchbox": true, "slider": true,
	"switch": true, "menuitem": true, "tab": true, "heading": true,
}

var roleLineRe = regexp.MustCompile(`^(\s*)-\s+(\w+)(?:\s+"([^"]*)")?(.*)$`)

// Snapshot renders the active tab's accessibility tree as a compact text
// listing keyed by UIDs of the form "<snapshot_id>_<index>". Each call
// mints a fresh snapshot id and invalidates every UID from the previous
// one — an element operation against a stale id is rejected by resolve.
func (t *Tab) Snapshot() (string, error) {
	raw, err := t.page.Locator("body").AriaSnapshot()
	if err != nil {
		return "", fmt.Errorf("browser: aria snapshot: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshotID = uuid.New().String()[:8]
	t.snapshotSeq = 0
	t.refs = make(map[string]elementRef)

	return t.annotate(raw), nil
}

func (t *Tab) annotate(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))

	header := fmt.Sprintf("uid=%s", t.snapshotID)
	out = append(out, header)

	for _, line := range lines {
		m := roleLineRe.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		indent, role, name, rest := m[1], m[2], m[3], m[4]
		if !interactiveRoles[role] {
			out = append(out, line)
			continue
		}

		uid := fmt.Sprintf("%s_%d", t.snapshotID, t.snapshotSeq)
		t.refs[uid] = elementRef{role: role, name: name, nth: t.snapshotSeq}
		t.snapshotSeq++

		annotated := fmt.Sprintf("%s- %s", indent, role)
		if name != "" {
			annotated += fmt.Sprintf(" %q", name)
		}
		annotated += fmt.Sprintf(" [%s]", uid)
		if rest != "" {
			annotated += rest
		}
		out = append(out, annotated)
	}
	return strings.Join(out, "\n")
}

// CompactThreshold is the payload length past which a stored snapshot
// tool-result should be downgraded to its interactive-line subset by the
// Single-Agent Loop's compaction pass (spec.md §4.6 step 9e).
const CompactThreshold = 5000

// Compact filters a rendered snapshot string down to its header plus only
// the lines that named an interactive role, prefixed with a kept/total
// count. Idempotent: a snapshot whose header already carries the
// "(compacted:" marker is returned unchanged.
func Compact(snapshot string) string {
	lines := strings.Split(snapshot, "\n")
	if len(lines) == 0 {
		return snapshot
	}

	header := lines[0]
	if strings.Contains(header, "(compacted:") {
		return snapshot
	}
	body := lines[1:]

	var kept []string
	for _, line := range body {
		if strings.Contains(line, "[") && strings.Contains(line, "_") && roleLineHasUID(line) {
			kept = append(kept, line)
		}
	}

	summary := fmt.Sprintf("%s (compacted: kept %d of %d lines)", header, len(kept), len(body))
	return strings.Join(append([]string{summary}, kept...), "\n")
}

var uidMarkerRe = regexp.MustCompile(`\[[A-Za-z0-9]+_\d+\]`)

func roleLineHasUID(line string) bool {
	return uidMarkerRe.MatchString(line)
}

// resolve looks up the element ref for uid, verifying it belongs to the
// tab's current snapshot. Returns a *StaleUIDError otherwise, per spec.md's
// "core rejects stale UIDs with a dedicated error" invariant.
func (t *Tab) resolve(uid string) (elementRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := strings.LastIndex(uid, "_")
	if idx < 0 {
		return elementRef{}, fmt.Errorf("browser: malformed uid %q", uid)
	}
	snapID := uid[:idx]
	if snapID != t.snapshotID {
		return elementRef{}, &StaleUIDError{UID: uid, CurrentSnapshot: t.snapshotID}
	}

	ref, ok := t.refs[uid]
	if !ok {
		return elementRef{}, fmt.Errorf("browser: unknown uid %q in current snapshot", uid)
	}
	return ref, nil
}

// locatorForRef builds a role-based Playwright locator for a resolved ref.
func (t *Tab) locatorForRef(ref elementRef) string {
	if ref.name != "" {
		return fmt.Sprintf(`role=%s[name="%s"]`, ref.role, ref.name)
	}
	return fmt.Sprintf(`role=%s >> nth=%d`, ref.role, ref.nth)
}
