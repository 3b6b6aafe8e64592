package code_analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// Wiring similarity weighting per factor.
const (
	wiringCategoryWeight   = 0.40
	wiringTokenWeight      = 0.30
	wiringStructuralWeight = 0.20
	wiringAuthorWeight     = 0.10

	maxWiringSuggestions = 5
)

// RecommendationEngine derives per-file actions and, for unwired files,
// ranks candidate wiring targets.
type RecommendationEngine struct {
	similarityFloor float64
}

// NewRecommendationEngine creates an engine with the configured minimum
// similarity for wiring suggestions.
func NewRecommendationEngine(similarityFloor float64) *RecommendationEngine {
	return &RecommendationEngine{similarityFloor: similarityFloor}
}

// Recommend fills the recommendation fields of one record using a fixed
// decision order; earlier rules always win.
func (e *RecommendationEngine) Recommend(record *models.FileRecord) {
	action, reasons, confidence := e.decide(record)
	record.Recommendation = action
	record.RecommendationReasons = reasons
	record.RecommendationConfidence = confidence
}

func (e *RecommendationEngine) decide(record *models.FileRecord) (models.RecommendedAction, []string, int) {
	if record.DuplicateOf != "" {
		return models.ActionMerge,
			[]string{fmt.Sprintf("exact duplicate of %s", record.DuplicateOf)}, 95
	}

	if len(record.StructuralDuplicates) > 0 {
		return models.ActionMerge,
			[]string{fmt.Sprintf("structurally duplicates %s", strings.Join(record.StructuralDuplicates, ", "))}, 85
	}

	switch record.UnwiredType {
	case models.UnwiredDeadCode:
		return models.ActionArchive,
			[]string{"disconnected with no meaningful history"}, 80
	case models.UnwiredOrphanedUseful:
		return models.ActionWire,
			[]string{"substantial file with active history but no importers"}, 70
	case models.UnwiredNewFeature:
		return models.ActionReview,
			[]string{"recently added feature not yet integrated"}, 60
	}

	if record.RiskLevel == models.RiskCritical {
		return models.ActionRefactor,
			[]string{fmt.Sprintf("critical risk score %.0f", record.RiskScore)}, 90
	}

	if len(record.Dependents) == 0 && !record.IsEntryPoint && !record.IsDynamicImported {
		return models.ActionArchive,
			[]string{"nothing imports this file"}, 75
	}

	if record.StabilityScore > 70 {
		return models.ActionKeep,
			[]string{fmt.Sprintf("stable (score %.0f) and well connected", record.StabilityScore)}, 80
	}

	if record.RiskLevel == models.RiskHigh {
		return models.ActionRefactor,
			[]string{fmt.Sprintf("high risk score %.0f", record.RiskScore)}, 70
	}

	return models.ActionReview, []string{"no strong signal either way"}, 50
}

// SuggestWiringTargets scores every other file that already has at least one
// dependent as an integration target for an unwired file, keeping the top
// candidates above the similarity floor.
func (e *RecommendationEngine) SuggestWiringTargets(record *models.FileRecord, records map[string]*models.FileRecord) []models.WiringSuggestion {
	var suggestions []models.WiringSuggestion

	for path, candidate := range records {
		if path == record.RelativePath || len(candidate.Dependents) == 0 {
			continue
		}

		categoryScore := 0.0
		if candidate.Category == record.Category {
			categoryScore = 1.0
		}

		exportOverlap := jaccard(record.Exports, candidate.Exports)
		importOverlap := jaccard(record.Imports, candidate.Imports)
		tokenScore := (exportOverlap + importOverlap) / 2

		structuralScore := 0.0
		if record.StructuralHash != "" && record.StructuralHash == candidate.StructuralHash {
			structuralScore = 1.0
		}

		authorScore := 0.0
		if record.Git != nil && candidate.Git != nil {
			authorScore = jaccard(record.Git.Authors, candidate.Git.Authors)
		}

		similarity := wiringCategoryWeight*categoryScore +
			wiringTokenWeight*tokenScore +
			wiringStructuralWeight*structuralScore +
			wiringAuthorWeight*authorScore

		if similarity < e.similarityFloor {
			continue
		}

		suggestions = append(suggestions, models.WiringSuggestion{
			TargetPath:      path,
			Similarity:      similarity,
			Reason:          wiringReason(categoryScore, tokenScore, structuralScore, authorScore, candidate),
			IntegrationHint: integrationHint(record, candidate),
			SharedExports:   sharedTokens(record.Exports, candidate.Exports),
			SharedImports:   sharedTokens(record.Imports, candidate.Imports),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Similarity != suggestions[j].Similarity {
			return suggestions[i].Similarity > suggestions[j].Similarity
		}
		return suggestions[i].TargetPath < suggestions[j].TargetPath
	})

	if len(suggestions) > maxWiringSuggestions {
		suggestions = suggestions[:maxWiringSuggestions]
	}
	return suggestions
}

// wiringReason names the strongest contributing factor in plain language.
func wiringReason(category, token, structural, author float64, candidate *models.FileRecord) string {
	type factor struct {
		weighted float64
		text     string
	}

	factors := []factor{
		{wiringCategoryWeight * category, fmt.Sprintf("same category (%s)", candidate.Category)},
		{wiringTokenWeight * token, "overlapping exported and imported symbols"},
		{wiringStructuralWeight * structural, "structurally identical code"},
		{wiringAuthorWeight * author, "shared commit authors"},
	}

	strongest := factors[0]
	for _, f := range factors[1:] {
		if f.weighted > strongest.weighted {
			strongest = f
		}
	}

	return fmt.Sprintf("%s is an actively used file with %s", candidate.RelativePath, strongest.text)
}

// integrationHint sketches how the unwired file could be attached.
func integrationHint(record, candidate *models.FileRecord) string {
	shared := sharedTokens(record.Exports, candidate.Exports)
	if len(shared) > 0 {
		return fmt.Sprintf("consolidate shared symbols (%s) into %s", strings.Join(shared, ", "), candidate.RelativePath)
	}
	return fmt.Sprintf("import %s from %s or a module near it", record.RelativePath, candidate.RelativePath)
}

func sharedTokens(a, b []string) []string {
	setB := make(map[string]bool, len(b))
	for _, token := range b {
		setB[token] = true
	}

	var shared []string
	seen := make(map[string]bool)
	for _, token := range a {
		if setB[token] && !seen[token] {
			shared = append(shared, token)
			seen[token] = true
		}
	}
	sort.Strings(shared)
	return shared
}
