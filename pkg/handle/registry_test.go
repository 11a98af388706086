package handle

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysAlive(interface{}) bool { return true }
func alwaysDead(interface{}) bool  { return false }

func TestAllocateAppDeduplicatesByIdentity(t *testing.T) {
	r := New()
	h1 := r.AllocateApp("pid:1234", "ref-a", alwaysAlive)
	h2 := r.AllocateApp("pid:1234", "ref-b", alwaysAlive)
	assert.Equal(t, h1, h2, "resolve_app called twice with the same selector must return the same handle")
}

func TestLookupUnknownHandleIsNotFound(t *testing.T) {
	r := New()
	_, err := r.LookupApp("ah_DEADBEEF")
	require.Error(t, err)
}

func TestExpiredHandleIsRejectedNotReused(t *testing.T) {
	r := New()
	h := r.allocate(AppKind, "pid:1", "ref", alwaysAlive, -time.Second)
	_, err := r.LookupApp(h)
	require.Error(t, err)

	// A second allocation for the same identity must not resurrect the
	// expired handle string.
	h2 := r.AllocateApp("pid:1", "ref", alwaysAlive)
	assert.NotEqual(t, h, h2)
}

func TestDeadLivenessProbeEvictsEntry(t *testing.T) {
	r := New()
	h := r.AllocateWindow("win:1", "ref", alwaysDead)
	_, err := r.LookupWindow(h)
	require.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestElementLookupRequiresLiveWindow(t *testing.T) {
	r := New()
	wh := r.AllocateWindow("win:1", "wref", alwaysAlive)
	r.RegisterElement("el_abc", wh, "eref", alwaysAlive)

	ref, err := r.LookupElement("el_abc")
	require.NoError(t, err)
	assert.Equal(t, "eref", ref)
}

func TestElementLookupFailsWhenWindowGone(t *testing.T) {
	r := New()
	wh := r.AllocateWindow("win:1", "wref", alwaysDead)
	r.RegisterElement("el_abc", wh, "eref", alwaysAlive)

	// First touch evicts the window.
	_, err := r.LookupWindow(wh)
	require.Error(t, err)

	_, err = r.LookupElement("el_abc")
	require.Error(t, err)
}

func TestSweepExpiredDropsOnlyStaleEntries(t *testing.T) {
	r := New()
	stale := r.allocate(AppKind, "pid:1", "ref1", alwaysAlive, -time.Second)
	fresh := r.AllocateApp("pid:2", "ref2", alwaysAlive)

	dropped := r.SweepExpired()
	assert.Equal(t, 1, dropped)

	_, err := r.LookupApp(stale)
	assert.Error(t, err)
	_, err = r.LookupApp(fresh)
	assert.NoError(t, err)
}

// TestHandleRoundTripProperty: for any identity and ref, a freshly minted app
// handle is immediately resolvable to its ref and carries the "ah_" prefix.
func TestHandleRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("allocated app handles resolve to their own ref", prop.ForAll(
		func(identity string, ref string) bool {
			r := New()
			h := r.AllocateApp(identity, ref, alwaysAlive)
			got, err := r.LookupApp(h)
			if err != nil {
				return false
			}
			if got.(string) != ref {
				return false
			}
			return len(h) > 3 && h[:3] == "ah_"
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
