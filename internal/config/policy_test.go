package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aristath/advisor/internal/domain"
)

func TestDefaultPolicy_IsValid(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
}

func TestDefaultPolicy_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultPolicy()
	a.TargetMixes[domain.RiskModerate][domain.AssetClassEquity] = 99

	b := DefaultPolicy()
	assert.Equal(t, 30.0, b.TargetMixes[domain.RiskModerate][domain.AssetClassEquity])
}

func TestLoadPolicy_EmptyPathReturnsDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy().FactorWeights, p.FactorWeights)
}

func TestLoadPolicy_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	doc := `
min_scores:
  aggressive: 50
target_mixes:
  moderate:
    equity: 50
    etf: 30
    fixed_income: 20
selection:
  sector_cap: 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, 50.0, p.MinScores[domain.RiskAggressive])
	assert.Equal(t, 65.0, p.MinScores[domain.RiskConservative], "untouched keys keep defaults")
	assert.Equal(t, 3, p.Selection.SectorCap)
	assert.Equal(t, 10.0, p.Selection.ClassTolerance)
	assert.Equal(t, map[domain.AssetClass]float64{
		domain.AssetClassEquity:      50,
		domain.AssetClassETF:         30,
		domain.AssetClassFixedIncome: 20,
	}, p.TargetMixes[domain.RiskModerate])
}

func TestLoadPolicy_RejectsInconsistentFile(t *testing.T) {
	tests := map[string]string{
		"weights":  "factor_weights:\n  technical: 0.9\n",
		"mix":      "target_mixes:\n  conservative:\n    equity: 50\n",
		"class":    "target_mixes:\n  conservative:\n    gold: 100\n",
		"syntax":   "selection: [",
		"fallback": "fallback:\n  min_score: 90\n  max_score: 60\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policy.yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
			_, err := LoadPolicy(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPolicy_TargetMixIsACopy(t *testing.T) {
	p := DefaultPolicy()
	mix := p.TargetMix(domain.RiskConservative)
	mix[domain.AssetClassCrypto] = 80
	assert.Equal(t, 5.0, p.TargetMixes[domain.RiskConservative][domain.AssetClassCrypto])
}

func TestPolicy_ToYAMLRoundTrips(t *testing.T) {
	data, err := DefaultPolicy().ToYAML()
	require.NoError(t, err)

	var decoded Policy
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, DefaultPolicy().TargetMixes, decoded.TargetMixes)
	assert.Equal(t, DefaultPolicy().Reasoning.SectorThesis, decoded.Reasoning.SectorThesis)
}
