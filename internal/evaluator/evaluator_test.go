package evaluator

import (
	"context"
	"fmt"
	"testing"

	"firesafe-engine/internal/catalog"
	"firesafe-engine/internal/detector"
	"firesafe-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRules struct {
	rules []models.Rule
	texts map[string][2]string
}

func (s *stubRules) RulesApplicableTo(models.DrawingType, models.BuildingType) []models.Rule {
	return s.rules
}

func (s *stubRules) Text(ruleID string) (string, string) {
	if t, ok := s.texts[ruleID]; ok {
		return t[0], t[1]
	}
	return "generic " + ruleID, "generic fix " + ruleID
}

type panicRand struct{}

func (panicRand) Float64() float64 { panic("random source exploded") }

func newTestEvaluator(t *testing.T, rules RuleSource, rnd RandSource) *Evaluator {
	t.Helper()
	return NewEvaluator(rules, detector.New(), rnd, 4, zap.NewNop())
}

func fireDrawing() models.Drawing {
	return models.Drawing{DrawingID: "d-1", FileName: "fire_protection_L1.dwg"}
}

func TestEvaluate_FireDrawingWithoutSmokeDetector(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	ev := newTestEvaluator(t, cat, FixedRand(0.99))

	project := models.Project{
		ProjectID:    "p-1",
		BuildingType: models.BuildingCommercial,
		AreaM2:       300,
		Floors:       2,
	}

	violations, err := ev.Evaluate(context.Background(), project, fireDrawing())
	require.NoError(t, err)

	var matched []models.Violation
	for _, v := range violations {
		if v.RuleID == "EFC-5.1" {
			matched = append(matched, v)
		}
	}
	require.Len(t, matched, 1)

	rule, ok := cat.Rule("EFC-5.1")
	require.True(t, ok)
	assert.Equal(t, rule.Severity, matched[0].Severity)
	assert.Equal(t, "smoke detector", matched[0].ElementType)
	assert.Contains(t, matched[0].Description, "No smoke detectors")
}

func TestEvaluate_RequiredElementPresent(t *testing.T) {
	rules := &stubRules{rules: []models.Rule{
		{ID: "R1", Title: "Sprinklers", Severity: models.SeverityCritical, RequiredElements: []string{"SPRINKLER head"}},
		{ID: "R2", Title: "Hose", Severity: models.SeverityMajor, RequiredElements: []string{"hose"}},
	}}
	ev := newTestEvaluator(t, rules, FixedRand(0))

	violations, err := ev.Evaluate(context.Background(), models.Project{}, fireDrawing())
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestEvaluate_ProbabilisticBySeverity(t *testing.T) {
	rules := &stubRules{rules: []models.Rule{
		{ID: "C", Severity: models.SeverityCritical},
		{ID: "M", Severity: models.SeverityMajor},
		{ID: "m", Severity: models.SeverityMinor},
	}}

	tests := []struct {
		draw float64
		want []string
	}{
		{0.0, []string{"C", "M", "m"}},
		{0.05, []string{"M", "m"}},
		{0.15, []string{"m"}},
		{0.99, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("draw=%.2f", tt.draw), func(t *testing.T) {
			ev := newTestEvaluator(t, rules, FixedRand(tt.draw))
			violations, err := ev.Evaluate(context.Background(), models.Project{}, fireDrawing())
			require.NoError(t, err)

			var ids []string
			for _, v := range violations {
				ids = append(ids, v.RuleID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestEvaluate_RuleFailureIsIsolated(t *testing.T) {
	rules := &stubRules{rules: []models.Rule{
		{ID: "PANICS", Severity: models.SeverityMajor},
		{ID: "BAD-SEVERITY", Severity: models.Severity("fatal")},
		{ID: "MISSING", Title: "Detectors", Severity: models.SeverityCritical, RequiredElements: []string{"smoke detector"}},
	}}
	ev := newTestEvaluator(t, rules, panicRand{})

	violations, err := ev.Evaluate(context.Background(), models.Project{}, fireDrawing())
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "MISSING", violations[0].RuleID)
}

func TestEvaluate_TextLookup(t *testing.T) {
	rules := &stubRules{
		rules: []models.Rule{{ID: "R1", Severity: models.SeverityMinor, RequiredElements: []string{"fire damper"}}},
		texts: map[string][2]string{"R1": {"no dampers", "add dampers"}},
	}
	ev := newTestEvaluator(t, rules, FixedRand(0.99))

	violations, err := ev.Evaluate(context.Background(), models.Project{}, fireDrawing())
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "no dampers", violations[0].Description)
	assert.Equal(t, "add dampers", violations[0].SuggestedFix)
	assert.Equal(t, "fire_protection_L1.dwg", violations[0].Location)
}

func TestEvaluate_ProjectConditions(t *testing.T) {
	rules := &stubRules{rules: []models.Rule{
		{ID: "HIGH-RISE", Severity: models.SeverityMajor, RequiredElements: []string{"pressurization"},
			Conditions: models.RuleConditions{MinFloors: 8}},
	}}
	ev := newTestEvaluator(t, rules, FixedRand(0.99))

	low, err := ev.Evaluate(context.Background(), models.Project{Floors: 3}, fireDrawing())
	require.NoError(t, err)
	assert.Empty(t, low)

	high, err := ev.Evaluate(context.Background(), models.Project{Floors: 12}, fireDrawing())
	require.NoError(t, err)
	assert.Len(t, high, 1)
}

func TestEvaluateDrawing_DeclaredTypeWins(t *testing.T) {
	ev := newTestEvaluator(t, &stubRules{}, FixedRand(0.99))

	d := fireDrawing()
	d.DeclaredType = "Electrical"
	res, err := ev.EvaluateDrawing(context.Background(), models.Project{}, d)
	require.NoError(t, err)
	assert.Equal(t, models.DrawingElectrical, res.DrawingType)
	assert.Contains(t, res.DetectedElements, "smoke detector")

	d.DeclaredType = "garden"
	res, err = ev.EvaluateDrawing(context.Background(), models.Project{}, d)
	require.NoError(t, err)
	assert.Equal(t, models.DrawingFire, res.DrawingType)
}

func TestEvaluate_CancelledContext(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	ev := newTestEvaluator(t, cat, FixedRand(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	violations, err := ev.Evaluate(ctx, models.Project{}, fireDrawing())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, violations)
}

func TestEvaluateProject_OrderPreserved(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	ev := newTestEvaluator(t, cat, NewLockedRand(42))

	project := models.Project{ProjectID: "p-2", BuildingType: models.BuildingResidential, Floors: 5, AreaM2: 900}
	names := []string{"arch.dwg", "electrical.dwg", "fire.dwg", "hvac.dwg", "plumbing.dwg", "structural.dwg", "plan.pdf"}
	for i, n := range names {
		project.Drawings = append(project.Drawings, models.Drawing{DrawingID: fmt.Sprintf("d-%d", i), FileName: n})
	}

	results, err := ev.EvaluateProject(context.Background(), project)
	require.NoError(t, err)
	require.Len(t, results, len(names))
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("d-%d", i), r.Drawing.DrawingID)
	}
	assert.Equal(t, models.DrawingMechanical, results[3].DrawingType)
	assert.Equal(t, models.DrawingArchitectural, results[6].DrawingType)
}

func TestEvaluateProject_CancelledDiscardsResults(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)
	ev := newTestEvaluator(t, cat, FixedRand(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	project := models.Project{Drawings: []models.Drawing{fireDrawing(), fireDrawing()}}
	results, err := ev.EvaluateProject(ctx, project)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestContainsElement(t *testing.T) {
	elements := []string{"Fire Alarm Panel", "sprinkler"}

	assert.True(t, containsElement(elements, "alarm panel"))
	assert.True(t, containsElement(elements, "automatic sprinkler system"))
	assert.True(t, containsElement(elements, "FIRE ALARM PANEL"))
	assert.False(t, containsElement(elements, "smoke detector"))
	assert.False(t, containsElement(elements, ""))
	assert.False(t, containsElement(nil, "sprinkler"))
}

func TestLockedRand_Deterministic(t *testing.T) {
	a := NewLockedRand(7)
	b := NewLockedRand(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestEvaluateProject_SameSeedSameViolations(t *testing.T) {
	cat, err := catalog.Load()
	require.NoError(t, err)

	project := models.Project{ProjectID: "p-3", BuildingType: models.BuildingIndustrial, Floors: 12, AreaM2: 8000}
	names := []string{"fire.dwg", "arch.dwg", "electrical.dwg", "hvac.dwg"}
	for i := 0; i < 40; i++ {
		project.Drawings = append(project.Drawings, models.Drawing{
			DrawingID: fmt.Sprintf("d-%d", i),
			FileName:  names[i%len(names)],
		})
	}

	ruleIDs := func(results []DrawingEvaluation) [][]string {
		out := make([][]string, len(results))
		for i, r := range results {
			for _, v := range r.Violations {
				out[i] = append(out[i], v.RuleID)
			}
		}
		return out
	}

	first, err := newTestEvaluator(t, cat, NewLockedRand(42)).EvaluateProject(context.Background(), project)
	require.NoError(t, err)
	want := ruleIDs(first)

	for run := 0; run < 20; run++ {
		results, err := newTestEvaluator(t, cat, NewLockedRand(42)).EvaluateProject(context.Background(), project)
		require.NoError(t, err)
		require.Equal(t, want, ruleIDs(results), "run %d", run)
	}
}

func TestLockedRand_SplitDeterministic(t *testing.T) {
	a := NewLockedRand(9).Split()
	b := NewLockedRand(9).Split()
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
