package catalog

import (
	"testing"

	"firesafe-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Idempotent(t *testing.T) {
	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)

	assert.Equal(t, first.Rules(), second.Rules())
	assert.NotEmpty(t, first.Rules())
}

func TestRules_ReturnsCopies(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	rules := c.Rules()
	rules[0].Title = "changed"
	rules[0].RequiredElements = append(rules[0].RequiredElements, "x")

	r, ok := c.Rule(rules[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "changed", r.Title)
	assert.NotContains(t, r.RequiredElements, "x")
}

func TestCategoryApplies(t *testing.T) {
	assert.True(t, CategoryApplies(models.CategoryExits, models.DrawingArchitectural, models.BuildingResidential))
	assert.False(t, CategoryApplies(models.CategoryExits, models.DrawingElectrical, models.BuildingResidential))

	assert.True(t, CategoryApplies(models.CategoryAlarm, models.DrawingElectrical, ""))
	assert.True(t, CategoryApplies(models.CategoryAlarm, models.DrawingFire, ""))
	assert.False(t, CategoryApplies(models.CategoryAlarm, models.DrawingPlumbing, ""))

	for _, dt := range models.DrawingTypes {
		assert.True(t, CategoryApplies(models.CategoryMaintenance, dt, ""))
		assert.True(t, CategoryApplies(models.CategoryTraining, dt, ""))
		assert.True(t, CategoryApplies(models.CategoryPenalty, dt, ""))
	}

	assert.False(t, CategoryApplies(models.CategoryHazard, models.DrawingFire, models.BuildingResidential))
	assert.True(t, CategoryApplies(models.CategoryHazard, models.DrawingFire, models.BuildingIndustrial))
	assert.False(t, CategoryApplies(models.CategoryHazard, models.DrawingElectrical, models.BuildingStorage))

	assert.False(t, CategoryApplies(models.Category("unknown"), models.DrawingArchitectural, ""))
}

func TestRulesApplicableTo_ElectricalOnlyAlarmLightingAndUniversal(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	for _, r := range c.RulesApplicableTo(models.DrawingElectrical, models.BuildingCommercial) {
		switch r.Category {
		case models.CategoryAlarm, models.CategoryEmergencyLighting,
			models.CategoryMaintenance, models.CategoryTraining, models.CategoryPenalty:
		default:
			t.Fatalf("rule %s (%s) should not apply to electrical drawings", r.ID, r.Category)
		}
	}
}

func TestText_FallsBackToRuleDescription(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	desc, fix := c.Text("EFC-5.1")
	assert.Contains(t, desc, "No smoke detectors")
	assert.Contains(t, fix, "10.5 m")

	rule, ok := c.Rule("EFC-5.2")
	require.True(t, ok)
	desc, fix = c.Text("EFC-5.2")
	assert.Equal(t, rule.Description, desc)
	assert.Equal(t, rule.Fix, fix)

	desc, fix = c.Text("missing")
	assert.Empty(t, desc)
	assert.Empty(t, fix)
}

func TestParse_RejectsBadDocuments(t *testing.T) {
	_, err := Parse([]byte("rules:\n  - id: A\n    title: a\n    severity: fatal\n"))
	assert.ErrorContains(t, err, "invalid severity")

	_, err = Parse([]byte("rules:\n  - id: A\n    severity: minor\n  - id: A\n    severity: minor\n"))
	assert.ErrorContains(t, err, "duplicate rule id")

	_, err = Parse([]byte("rules: []\nviolation_texts:\n  X:\n    description: d\n"))
	assert.ErrorContains(t, err, "unknown rule")
}

func TestChapters_InCatalogOrder(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	chapters := c.Chapters()
	require.NotEmpty(t, chapters)
	assert.Equal(t, "Chapter 3: Means of Egress", chapters[0])
	assert.Equal(t, "Chapter 13: Violations and Penalties", chapters[len(chapters)-1])
}
