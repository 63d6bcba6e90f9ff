package enforcer

import (
	"errors"
	"fmt"

	"github.com/bradstire/wst-reader/internal/domain"
)

// Tuning carries every empirically tuned constant of the pipeline. Sign
// specific targets live in Profiles.
type Tuning struct {
	Profiles domain.ProfileTable `yaml:"profiles"`

	ShortLineWords int `yaml:"short_line_words"`
	LongLineWords  int `yaml:"long_line_words"`
	WindowWords    int `yaml:"window_words"`
	// SplitMinWords is the shortest line the staccato pass will split.
	SplitMinWords int `yaml:"split_min_words"`

	MinDensityScale  float64 `yaml:"min_density_scale"`
	EllipsisMinRate  float64 `yaml:"ellipsis_min_rate"`
	EllipsisRate     float64 `yaml:"ellipsis_rate"`
	EllipsisMaxRate  float64 `yaml:"ellipsis_max_rate"`
	QuestionMinRate  float64 `yaml:"question_min_rate"`
	QuestionMaxRate  float64 `yaml:"question_max_rate"`
	QuestionThrottle float64 `yaml:"question_throttle"`

	// InjectionMinWords gates the passes that add lines, so very short
	// inputs are only corrected, never padded.
	InjectionMinWords int `yaml:"injection_min_words"`
	// CheckpointMinParagraphs gates checkpoint questions.
	CheckpointMinParagraphs int `yaml:"checkpoint_min_paragraphs"`
	// WaterAnchorAt is the fraction of the document where the anchor goes.
	WaterAnchorAt float64 `yaml:"water_anchor_at"`

	// Texture passes. Rates are per 1000 content words, floored at
	// TextureMinScale thousand.
	TextureMinScale float64 `yaml:"texture_min_scale"`
	InvitationRate  float64 `yaml:"invitation_rate"`
	InvitationMin   int     `yaml:"invitation_min"`
	InvitationMax   int     `yaml:"invitation_max"`
	FillerRate      float64 `yaml:"filler_rate"`
	PivotLimit      int     `yaml:"pivot_limit"`
	RevealAt        float64 `yaml:"reveal_at"`

	MaxRuleIterations int `yaml:"max_rule_iterations"`
}

// DefaultTuning returns the production constants.
func DefaultTuning() Tuning {
	return Tuning{
		Profiles:                domain.DefaultProfileTable(),
		ShortLineWords:          6,
		LongLineWords:           28,
		WindowWords:             200,
		SplitMinWords:           13,
		MinDensityScale:         0.2,
		EllipsisMinRate:         5,
		EllipsisRate:            7.14,
		EllipsisMaxRate:         10,
		QuestionMinRate:         4,
		QuestionMaxRate:         10,
		QuestionThrottle:        0.85,
		InjectionMinWords:       300,
		CheckpointMinParagraphs: 4,
		WaterAnchorAt:           0.8,
		TextureMinScale:         0.75,
		InvitationRate:          4,
		InvitationMin:           3,
		InvitationMax:           5,
		FillerRate:              2,
		PivotLimit:              3,
		RevealAt:                0.6,
		MaxRuleIterations:       5,
	}
}

// Validate reports every out-of-range constant.
func (t Tuning) Validate() error {
	var errs []error
	positive := map[string]int{
		"short_line_words":    t.ShortLineWords,
		"long_line_words":     t.LongLineWords,
		"window_words":        t.WindowWords,
		"split_min_words":     t.SplitMinWords,
		"max_rule_iterations": t.MaxRuleIterations,
	}
	for name, v := range positive {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if t.SplitMinWords <= t.ShortLineWords {
		errs = append(errs, fmt.Errorf("split_min_words (%d) must exceed short_line_words (%d)", t.SplitMinWords, t.ShortLineWords))
	}
	if t.EllipsisMinRate > t.EllipsisMaxRate {
		errs = append(errs, errors.New("ellipsis_min_rate must not exceed ellipsis_max_rate"))
	}
	if t.QuestionMinRate > t.QuestionMaxRate {
		errs = append(errs, errors.New("question_min_rate must not exceed question_max_rate"))
	}
	if t.QuestionThrottle <= 0 || t.QuestionThrottle > 1 {
		errs = append(errs, fmt.Errorf("question_throttle must be in (0, 1], got %v", t.QuestionThrottle))
	}
	if t.WaterAnchorAt <= 0 || t.WaterAnchorAt >= 1 {
		errs = append(errs, fmt.Errorf("water_anchor_at must be in (0, 1), got %v", t.WaterAnchorAt))
	}
	if t.RevealAt < 0 || t.RevealAt >= 1 {
		errs = append(errs, fmt.Errorf("reveal_at must be in [0, 1), got %v", t.RevealAt))
	}
	if t.InvitationMin < 0 || t.InvitationMin > t.InvitationMax {
		errs = append(errs, errors.New("invitation_min must be in [0, invitation_max]"))
	}
	if t.PivotLimit < 0 || t.FillerRate < 0 || t.TextureMinScale < 0 {
		errs = append(errs, errors.New("pivot_limit, filler_rate and texture_min_scale must not be negative"))
	}
	for sign, p := range t.Profiles.Signs {
		if err := validateProfile(p); err != nil {
			errs = append(errs, fmt.Errorf("profile %s: %w", sign, err))
		}
	}
	if err := validateProfile(t.Profiles.Default); err != nil {
		errs = append(errs, fmt.Errorf("default profile: %w", err))
	}
	return errors.Join(errs...)
}

func validateProfile(p domain.ConstraintProfile) error {
	switch {
	case p.TrackedWordCap < 0 || p.TrackedPhraseCap < 0:
		return errors.New("caps must not be negative")
	case p.StaccatoMin < 0 || p.StaccatoMax > 1 || p.StaccatoMin > p.StaccatoMax:
		return fmt.Errorf("staccato band [%v, %v] is invalid", p.StaccatoMin, p.StaccatoMax)
	case p.QuestionCooldownWords < 0:
		return errors.New("question cooldown must not be negative")
	}
	return nil
}
