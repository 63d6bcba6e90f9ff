package domain

// ConstraintProfile holds the numeric style targets for one sign.
type ConstraintProfile struct {
	Sign   Sign   `yaml:"-" json:"sign,omitempty"`
	Family Family `yaml:"-" json:"family,omitempty"`

	TrackedWordCap   int `yaml:"tracked_word_cap" json:"tracked_word_cap"`
	TrackedPhraseCap int `yaml:"tracked_phrase_cap" json:"tracked_phrase_cap"`
	// ZeroTrackedWord forces the tracked word out of the document entirely.
	ZeroTrackedWord bool `yaml:"zero_tracked_word" json:"zero_tracked_word"`

	// QuestionRate is questions per 1000 words before the global throttle.
	QuestionRate          float64 `yaml:"question_rate" json:"question_rate"`
	QuestionCooldownWords int     `yaml:"question_cooldown_words" json:"question_cooldown_words"`

	StaccatoMin float64 `yaml:"staccato_min" json:"staccato_min"`
	StaccatoMax float64 `yaml:"staccato_max" json:"staccato_max"`

	AirModulation bool `yaml:"air_modulation" json:"air_modulation"`
	WaterAnchor   bool `yaml:"water_anchor" json:"water_anchor"`
}

// EffectiveWordCap is the tracked-word cap after the zeroing override.
func (p ConstraintProfile) EffectiveWordCap() int {
	if p.ZeroTrackedWord {
		return 0
	}
	return p.TrackedWordCap
}

// ProfileTable maps signs to profiles. Unknown signs get Default.
type ProfileTable struct {
	Default ConstraintProfile          `yaml:"default"`
	Signs   map[Sign]ConstraintProfile `yaml:"signs"`
}

// For returns the profile for raw, matched case-insensitively.
func (t ProfileTable) For(raw string) ConstraintProfile {
	sign, ok := ParseSign(raw)
	if !ok {
		return t.Default
	}
	if p, ok := t.Signs[sign]; ok {
		p.Sign, p.Family = sign, sign.Family()
		return p
	}
	p := t.Default
	p.Sign, p.Family = sign, sign.Family()
	return p
}

// DefaultProfile is the profile for signs outside the table.
func DefaultProfile() ConstraintProfile {
	return ConstraintProfile{
		TrackedWordCap:        10,
		TrackedPhraseCap:      3,
		QuestionRate:          7,
		QuestionCooldownWords: 80,
		StaccatoMin:           0.20,
		StaccatoMax:           0.25,
	}
}

// FamilyProfile returns the baseline profile shared by a family's signs.
func FamilyProfile(f Family) ConstraintProfile {
	p := DefaultProfile()
	p.Family = f
	switch f {
	case FamilyFire:
		p.QuestionRate, p.QuestionCooldownWords = 7.5, 70
		p.StaccatoMin, p.StaccatoMax = 0.22, 0.28
	case FamilyEarth:
		p.QuestionRate, p.QuestionCooldownWords = 5.5, 100
		p.StaccatoMin, p.StaccatoMax = 0.15, 0.20
	case FamilyAir:
		p.QuestionRate, p.QuestionCooldownWords = 8, 60
		p.StaccatoMin, p.StaccatoMax = 0.20, 0.26
		p.AirModulation = true
	case FamilyWater:
		p.QuestionRate, p.QuestionCooldownWords = 6.5, 90
		p.StaccatoMin, p.StaccatoMax = 0.18, 0.24
	}
	return p
}

// DefaultProfileTable builds the table every reading uses unless tuning
// overrides it.
func DefaultProfileTable() ProfileTable {
	t := ProfileTable{Default: DefaultProfile(), Signs: make(map[Sign]ConstraintProfile, 12)}
	for _, s := range Signs() {
		p := FamilyProfile(s.Family())
		p.Sign = s
		switch s {
		case Capricorn:
			p.ZeroTrackedWord = true
		case Scorpio, Pisces:
			p.WaterAnchor = true
		}
		t.Signs[s] = p
	}
	return t
}
