package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage_Merge(t *testing.T) {
	usages := []Usage{Arriving, Departing, Both}
	for _, a := range usages {
		assert.Equal(t, a, a.Merge(a), "idempotent for %s", a)
		assert.Equal(t, Both, a.Merge(Both))
		for _, b := range usages {
			assert.Equal(t, a.Merge(b), b.Merge(a), "commutative for %s/%s", a, b)
		}
	}
	assert.Equal(t, Both, Arriving.Merge(Departing))
}

func TestSelection_AddMerges(t *testing.T) {
	var sel Selection
	sel.Add("01L", Departing)
	sel.Add("01R", Arriving)
	sel.Add("01L", Arriving)

	u, ok := sel.Usage("01L")
	require.True(t, ok)
	assert.Equal(t, Both, u)
	assert.Equal(t, []Entry{{"01L", Both}, {"01R", Arriving}}, sel.Entries())
	assert.Equal(t, "{01L:both, 01R:arriving}", sel.String())
}

func TestRunwaysInUse_NeverStoresEmpty(t *testing.T) {
	var r RunwaysInUse
	r.Set(ComputedFromObservation, Selection{})
	assert.True(t, r.IsEmpty())

	_, _, ok := r.Effective()
	assert.False(t, ok)
}

func TestRunwaysInUse_Precedence(t *testing.T) {
	bulletin := NewSelection(Entry{"01L", Departing}, Entry{"01R", Arriving})
	computed := NewSelection(Entry{"19R", Both})
	fallback := NewSelection(Entry{"01", Both})

	var r RunwaysInUse
	r.Set(ConfiguredFallback, fallback)
	r.Set(ComputedFromObservation, computed)
	r.Set(OperationalBulletin, bulletin)

	src, sel, ok := r.Effective()
	require.True(t, ok)
	assert.Equal(t, OperationalBulletin, src)
	assert.Equal(t, bulletin.Entries(), sel.Entries())

	r.Set(OperationalBulletin, Selection{})
	src, sel, ok = r.Effective()
	require.True(t, ok)
	assert.Equal(t, ComputedFromObservation, src)
	assert.Equal(t, computed.Entries(), sel.Entries())
}

func TestRunwaysInUse_MergeWithinSource(t *testing.T) {
	var r RunwaysInUse
	r.Merge(OperationalBulletin, "01L", Departing)
	r.Merge(OperationalBulletin, "01L", Arriving)

	sel, ok := r.Get(OperationalBulletin)
	require.True(t, ok)
	u, _ := sel.Usage("01L")
	assert.Equal(t, Both, u)
}

func TestRunwaysInUse_SetIfAbsent(t *testing.T) {
	var r RunwaysInUse
	r.Set(ConfiguredFallback, NewSelection(Entry{"01L", Departing}))
	assert.False(t, r.SetIfAbsent(ConfiguredFallback, NewSelection(Entry{"01", Both})))

	sel, _ := r.Get(ConfiguredFallback)
	assert.Equal(t, []Entry{{"01L", Departing}}, sel.Entries())
}

func TestAssignment_Records(t *testing.T) {
	a := Assignment{
		ICAO:      "ENGM",
		Source:    ComputedFromObservation,
		Selection: NewSelection(Entry{"01L", Departing}, Entry{"01R", Arriving}, Entry{"19R", Both}),
	}
	assert.Equal(t, []string{
		"ACTIVE_RUNWAY:ENGM:01L:1",
		"ACTIVE_RUNWAY:ENGM:01R:0",
		"ACTIVE_RUNWAY:ENGM:19R:1",
		"ACTIVE_RUNWAY:ENGM:19R:0",
	}, a.Records())
}

func TestAirports_Assignments(t *testing.T) {
	as := Airports{}
	as.Get("ENZV").InUse.Set(ComputedFromObservation, NewSelection(Entry{"18", Both}))
	as.Get("ENBR")
	as.Get("ENGM").InUse.Set(ConfiguredFallback, NewSelection(Entry{"01", Both}))

	assigned, unconfigured := as.Assignments()
	require.Len(t, assigned, 2)
	assert.Equal(t, "ENGM", assigned[0].ICAO)
	assert.Equal(t, ConfiguredFallback, assigned[0].Source)
	assert.Equal(t, "ENZV", assigned[1].ICAO)
	assert.Equal(t, []string{"ENBR"}, unconfigured)
}

func TestAirport_AddRunwayRejectsDuplicates(t *testing.T) {
	a := NewAirport("ENGM")
	require.NoError(t, a.AddRunway(NewRunway(NewRunwayDirection("01L", 14), NewRunwayDirection("19R", 194))))
	assert.Error(t, a.AddRunway(NewRunway(NewRunwayDirection("01L", 14), NewRunwayDirection("19L", 194))))
	assert.True(t, a.HasRunwayPrefix("01"))
	assert.False(t, a.HasRunwayPrefix("02"))
}
