package browser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleSnapshot builds an annotated snapshot the way Tab.annotate renders
// one: a uid= header, interactive lines carrying [snapID_n] markers, and
// plain structural lines without them.
func sampleSnapshot(snapID string) string {
	lines := []string{
		fmt.Sprintf("uid=%s", snapID),
		`- document "Example Domain"`,
		fmt.Sprintf(`  - heading "Example Domain" [%s_0]`, snapID),
		`  - paragraph`,
		`    - text "This domain is for use in examples."`,
		fmt.Sprintf(`  - link "More information..." [%s_1]`, snapID),
		fmt.Sprintf(`  - button "Accept" [%s_2]`, snapID),
		`  - generic`,
	}
	return strings.Join(lines, "\n")
}

func TestCompactKeepsOnlyUIDLines(t *testing.T) {
	snap := sampleSnapshot("ab12cd34")
	compacted := Compact(snap)

	lines := strings.Split(compacted, "\n")
	require.Equal(t, "uid=ab12cd34 (compacted: kept 3 of 7 lines)", lines[0])
	require.Len(t, lines, 4)
	for _, line := range lines[1:] {
		require.True(t, roleLineHasUID(line), "kept line must carry a uid marker: %q", line)
	}
	require.NotContains(t, compacted, "This domain is for use")
}

func TestCompactIsIdempotent(t *testing.T) {
	snap := sampleSnapshot("ab12cd34")
	once := Compact(snap)
	twice := Compact(once)
	require.Equal(t, once, twice)
}

func TestCompactEmptyBody(t *testing.T) {
	compacted := Compact("uid=ab12cd34")
	require.Equal(t, "uid=ab12cd34 (compacted: kept 0 of 0 lines)", compacted)
}

func TestAnnotateAssignsSequentialUIDsToInteractiveRoles(t *testing.T) {
	tab := &Tab{snapshotID: "ab12cd34", refs: make(map[string]elementRef)}
	raw := strings.Join([]string{
		`- document "Login"`,
		`  - textbox "Username"`,
		`  - textbox "Password"`,
		`  - button "Sign in"`,
		`  - paragraph`,
	}, "\n")

	out := tab.annotate(raw)
	require.Contains(t, out, `textbox "Username" [ab12cd34_0]`)
	require.Contains(t, out, `textbox "Password" [ab12cd34_1]`)
	require.Contains(t, out, `button "Sign in" [ab12cd34_2]`)
	require.NotContains(t, out, "paragraph [")

	require.Len(t, tab.refs, 3)
	require.Equal(t, elementRef{role: "button", name: "Sign in", nth: 2}, tab.refs["ab12cd34_2"])
}

func TestResolveRejectsStaleUID(t *testing.T) {
	tab := &Tab{snapshotID: "ab12cd34", refs: map[string]elementRef{
		"ab12cd34_0": {role: "button", name: "Accept"},
	}}

	_, err := tab.resolve("deadbeef_0")
	var stale *StaleUIDError
	require.ErrorAs(t, err, &stale)
	require.Equal(t, "deadbeef_0", stale.UID)
	require.Equal(t, "ab12cd34", stale.CurrentSnapshot)
}

func TestResolveCurrentSnapshot(t *testing.T) {
	tab := &Tab{snapshotID: "ab12cd34", refs: map[string]elementRef{
		"ab12cd34_0": {role: "button", name: "Accept"},
	}}

	ref, err := tab.resolve("ab12cd34_0")
	require.NoError(t, err)
	require.Equal(t, "button", ref.role)

	_, err = tab.resolve("ab12cd34_99")
	require.Error(t, err)
	var stale *StaleUIDError
	require.False(t, errors.As(err, &stale), "unknown index in current snapshot is not a stale-uid error")

	_, err = tab.resolve("noseparator")
	require.Error(t, err)
}

func TestLocatorForRefPrefersName(t *testing.T) {
	tab := &Tab{}
	require.Equal(t, `role=button[name="Sign in"]`, tab.locatorForRef(elementRef{role: "button", name: "Sign in"}))
	require.Equal(t, `role=textbox >> nth=4`, tab.locatorForRef(elementRef{role: "textbox", nth: 4}))
}
