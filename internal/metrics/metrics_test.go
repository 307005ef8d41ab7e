package metrics

import (
	"testing"

	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/acapretti/bogofree/pkg/promo"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "skipped", Outcome(promo.Report{Skipped: true}))
	assert.Equal(t, "disabled", Outcome(promo.Report{}))
	assert.Equal(t, "qualifying", Outcome(promo.Report{Result: promo.Result{Enabled: true, Qualifies: true}}))
	assert.Equal(t, "not_qualifying", Outcome(promo.Report{Result: promo.Result{Enabled: true}}))
}

func TestRecordPass(t *testing.T) {
	m := defaultPromoMetrics()
	addedBefore := testutil.ToFloat64(m.added)
	qualifyingBefore := testutil.ToFloat64(m.passes.WithLabelValues("qualifying"))

	RecordPass(promo.Report{
		Result: promo.Result{
			Enabled:   true,
			Qualifies: true,
			Added:     []cart.Line{{Key: "a"}, {Key: "b"}},
		},
		Repriced: []string{"a"},
	})

	assert.Equal(t, addedBefore+2, testutil.ToFloat64(m.added))
	assert.Equal(t, qualifyingBefore+1, testutil.ToFloat64(m.passes.WithLabelValues("qualifying")))
}

func TestRecordSettingsSave(t *testing.T) {
	m := defaultPromoMetrics()
	before := testutil.ToFloat64(m.saves)
	RecordSettingsSave()
	assert.Equal(t, before+1, testutil.ToFloat64(m.saves))
}
