// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package recommend

import "fmt"

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each signal source when
	// fusing candidate lists.
	Weights SignalWeights `json:"weights" koanf:"weights"`

	// Vectorizer contains parameters for the TF-IDF content index.
	Vectorizer VectorizerConfig `json:"vectorizer" koanf:"vectorizer"`

	// Content contains parameters for content-based scoring.
	Content ContentConfig `json:"content" koanf:"content"`

	// Collaborative contains parameters for neighbor-based scoring.
	Collaborative CollaborativeConfig `json:"collaborative" koanf:"collaborative"`

	// Fusion contains parameters for the final score blend.
	Fusion FusionConfig `json:"fusion" koanf:"fusion"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Evaluation contains leave-one-out evaluation parameters.
	Evaluation EvalConfig `json:"evaluation" koanf:"evaluation"`
}

// SignalWeights defines the blend weights for the two signal sources.
// A course appearing in both candidate lists sums both weighted scores.
type SignalWeights struct {
	// Content is the weight for content-based scores.
	Content float64 `json:"content" koanf:"content"`

	// Collaborative is the weight for collaborative scores.
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`
}

// VectorizerConfig contains parameters for the TF-IDF vectorizer.
type VectorizerConfig struct {
	// MaxFeatures caps the vocabulary size. Terms are kept by descending
	// corpus frequency, ties broken alphabetically.
	MaxFeatures int `json:"max_features" koanf:"max_features"`

	// NgramMin and NgramMax bound the n-gram sizes extracted. The default
	// (1, 2) uses single terms and adjacent term pairs.
	NgramMin int `json:"ngram_min" koanf:"ngram_min"`
	NgramMax int `json:"ngram_max" koanf:"ngram_max"`
}

// ContentConfig contains parameters for content-based scoring.
type ContentConfig struct {
	// TakenCourseWeight scales the similarity rows of already-completed
	// courses added into the query similarity. Completed courses pull
	// recommendations toward similar content at a lower weight than the
	// direct interest query.
	TakenCourseWeight float64 `json:"taken_course_weight" koanf:"taken_course_weight"`
}

// CollaborativeConfig contains parameters for neighbor-based scoring.
type CollaborativeConfig struct {
	// MinCommonCourses is the minimum number of courses with nonzero
	// interaction both students must share for a similarity to count.
	MinCommonCourses int `json:"min_common_courses" koanf:"min_common_courses"`

	// MaxNeighbors is the number of most-similar students whose liked
	// courses are propagated.
	MaxNeighbors int `json:"max_neighbors" koanf:"max_neighbors"`

	// LikedThreshold is the interaction value a neighbor's course must
	// exceed to count as liked, on the 1-5 scale.
	LikedThreshold float64 `json:"liked_threshold" koanf:"liked_threshold"`
}

// FusionConfig contains parameters for the final score blend applied to
// candidates that survive filtering.
type FusionConfig struct {
	// ScoreWeight scales the fused signal score.
	ScoreWeight float64 `json:"score_weight" koanf:"score_weight"`

	// PopularityWeight scales the popularity boost. The boost itself is
	// popularity_score * PopularityBoost before weighting.
	PopularityWeight float64 `json:"popularity_weight" koanf:"popularity_weight"`

	// PopularityBoost scales the raw popularity score into a boost term.
	PopularityBoost float64 `json:"popularity_boost" koanf:"popularity_boost"`

	// LevelWeight scales the level-match term.
	LevelWeight float64 `json:"level_weight" koanf:"level_weight"`

	// LevelMatchBoost is the level-match value when the course's
	// hundred-level digit equals the student's year of study; otherwise the
	// term is 1.0.
	LevelMatchBoost float64 `json:"level_match_boost" koanf:"level_match_boost"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the result count when a request does not specify one.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit caps the requested result count.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// OversampleFactor multiplies the limit when requesting candidates from
	// each signal source, so enough survive downstream filtering.
	OversampleFactor int `json:"oversample_factor" koanf:"oversample_factor"`
}

// EvalConfig contains leave-one-out evaluation parameters.
type EvalConfig struct {
	// SampleFraction is the fraction of students sampled into the test
	// cohort when none is given explicitly.
	SampleFraction float64 `json:"sample_fraction" koanf:"sample_fraction"`

	// Seed is the sampling seed for reproducible cohorts.
	Seed int64 `json:"seed" koanf:"seed"`

	// TopK is the recommendation depth requested per test student.
	TopK int `json:"top_k" koanf:"top_k"`

	// MinHistory is the minimum distinct course count a student needs to be
	// evaluated.
	MinHistory int `json:"min_history" koanf:"min_history"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Weights: SignalWeights{
			Content:       0.4,
			Collaborative: 0.6,
		},
		Vectorizer: VectorizerConfig{
			MaxFeatures: 5000,
			NgramMin:    1,
			NgramMax:    2,
		},
		Content: ContentConfig{
			TakenCourseWeight: 0.5,
		},
		Collaborative: CollaborativeConfig{
			MinCommonCourses: 2,
			MaxNeighbors:     10,
			LikedThreshold:   3.0,
		},
		Fusion: FusionConfig{
			ScoreWeight:      0.6,
			PopularityWeight: 0.2,
			PopularityBoost:  0.2,
			LevelWeight:      0.2,
			LevelMatchBoost:  1.2,
		},
		Limits: LimitsConfig{
			DefaultLimit:     5,
			MaxLimit:         50,
			OversampleFactor: 2,
		},
		Evaluation: EvalConfig{
			SampleFraction: 0.2,
			Seed:           42,
			TopK:           20,
			MinHistory:     2,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Weights.Content < 0 || c.Weights.Collaborative < 0 {
		return fmt.Errorf("signal weights must be non-negative")
	}
	if c.Weights.Content+c.Weights.Collaborative == 0 {
		return fmt.Errorf("at least one signal weight must be positive")
	}
	if c.Vectorizer.MaxFeatures <= 0 {
		return fmt.Errorf("vectorizer max_features must be positive, got %d", c.Vectorizer.MaxFeatures)
	}
	if c.Vectorizer.NgramMin < 1 || c.Vectorizer.NgramMax < c.Vectorizer.NgramMin {
		return fmt.Errorf("invalid ngram range (%d, %d)", c.Vectorizer.NgramMin, c.Vectorizer.NgramMax)
	}
	if c.Content.TakenCourseWeight < 0 {
		return fmt.Errorf("taken_course_weight must be non-negative, got %f", c.Content.TakenCourseWeight)
	}
	if c.Collaborative.MinCommonCourses < 1 {
		return fmt.Errorf("min_common_courses must be at least 1, got %d", c.Collaborative.MinCommonCourses)
	}
	if c.Collaborative.MaxNeighbors < 1 {
		return fmt.Errorf("max_neighbors must be at least 1, got %d", c.Collaborative.MaxNeighbors)
	}
	if c.Collaborative.LikedThreshold < 0 || c.Collaborative.LikedThreshold > RatingMax {
		return fmt.Errorf("liked_threshold must be in [0, %g], got %f", RatingMax, c.Collaborative.LikedThreshold)
	}
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be at least 1, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("max_limit %d below default_limit %d", c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.OversampleFactor < 1 {
		return fmt.Errorf("oversample_factor must be at least 1, got %d", c.Limits.OversampleFactor)
	}
	if c.Evaluation.SampleFraction <= 0 || c.Evaluation.SampleFraction > 1 {
		return fmt.Errorf("sample_fraction must be in (0, 1], got %f", c.Evaluation.SampleFraction)
	}
	if c.Evaluation.TopK < 1 {
		return fmt.Errorf("evaluation top_k must be at least 1, got %d", c.Evaluation.TopK)
	}
	if c.Evaluation.MinHistory < 2 {
		return fmt.Errorf("evaluation min_history must be at least 2, got %d", c.Evaluation.MinHistory)
	}
	return nil
}
