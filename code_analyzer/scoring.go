package code_analyzer

import (
	"math"
	"time"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// Stability weighting: connectivity dominates, penalties temper the rest.
const (
	stabilityDependentsWeight = 0.30
	stabilityExportsWeight    = 0.20
	stabilitySizeWeight       = 0.15
	stabilityRecencyWeight    = 0.15
	stabilityPenaltyWeight    = 0.20

	// moderateLineTarget is the size a file is "supposed" to be; scores fall
	// off in both directions from it.
	moderateLineTarget = 150
)

// ScoreFile computes stability and risk for one record and stores them on
// the record, returning the assigned risk level.
func ScoreFile(record *models.FileRecord) models.RiskLevel {
	record.StabilityScore = stabilityScore(record)
	record.RiskScore = riskScore(record)
	record.RiskLevel = riskLevelFor(record.RiskScore)
	return record.RiskLevel
}

// stabilityScore is a weighted heuristic over connectivity, surface area,
// size, recency, and accumulated penalties, clamped to 0-100.
func stabilityScore(record *models.FileRecord) float64 {
	dependents := math.Min(100, float64(len(record.Dependents))*25)
	exports := math.Min(100, float64(len(record.Exports))*20)

	// Neither tiny nor huge files score well on size.
	sizeDistance := math.Abs(float64(record.LineCount - moderateLineTarget))
	size := math.Max(0, 100-sizeDistance/2)

	recency := recencyScore(record.ModTime)

	penalty := 0.0
	if record.IsTest {
		penalty += 20
	}
	if record.DuplicateOf != "" {
		penalty += 40
	}
	penalty += float64(len(record.Issues)) * 10
	penalty = math.Min(100, penalty)

	score := stabilityDependentsWeight*dependents +
		stabilityExportsWeight*exports +
		stabilitySizeWeight*size +
		stabilityRecencyWeight*recency +
		stabilityPenaltyWeight*(100-penalty)

	return clampScore(score)
}

func recencyScore(modTime time.Time) float64 {
	age := time.Since(modTime)
	switch {
	case age <= 7*24*time.Hour:
		return 100
	case age <= 30*24*time.Hour:
		return 80
	case age <= 90*24*time.Hour:
		return 60
	case age <= 365*24*time.Hour:
		return 40
	default:
		return 20
	}
}

// riskScore accumulates additive points; it is monotonically non-decreasing
// in complexity, unsafe-type count, and issue count.
func riskScore(record *models.FileRecord) float64 {
	score := 0.0

	switch {
	case record.Complexity > 20:
		score += 20
	case record.Complexity > 10:
		score += 10
	}

	switch {
	case record.UnsafeTypeCount > 5:
		score += 15
	case record.UnsafeTypeCount > 0:
		score += 5
	}

	switch {
	case record.LineCount > 500:
		score += 15
	case record.LineCount > 300:
		score += 10
	}

	score += float64(len(record.Issues)) * 5

	if len(record.Dependents) == 0 && !record.IsEntryPoint {
		score += 20
	}

	if record.DuplicateOf != "" {
		score += 25
	}

	return clampScore(score)
}

// riskLevelFor is the threshold ladder mapping scores to levels.
func riskLevelFor(score float64) models.RiskLevel {
	switch {
	case score >= 75:
		return models.RiskCritical
	case score >= 50:
		return models.RiskHigh
	case score >= 25:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
