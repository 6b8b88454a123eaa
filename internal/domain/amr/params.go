package amr

// Params defines all configurable parameters for the AMR scheduling algorithm.
type Params struct {
	// RetentionTarget is the recall probability the scheduler aims for when
	// computing the next review interval.
	RetentionTarget float64

	// MinIntervalDays floors every computed interval to prevent same-day
	// repeats when strength is small.
	MinIntervalDays float64

	// StrengthFloor is the absolute minimum strength after any update, so
	// strength can never collapse to zero or go negative.
	StrengthFloor float64

	// PerfectRecallBonus is the additive strength bonus applied only on a
	// perfect-recall grade, rewarding mastery beyond the multiplicative model.
	PerfectRecallBonus float64

	// QualityMultiplier maps each quality grade in [0, 5] to a strength
	// multiplier. Monotonically increasing with quality.
	QualityMultiplier map[int]float64
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values leave the corresponding default in place.
type ParamsConfig struct {
	RetentionTarget    float64
	MinIntervalDays    float64
	StrengthFloor      float64
	PerfectRecallBonus float64

	// Per-grade strength multipliers
	BlackoutMultiplier  float64 // quality 0
	WrongMultiplier     float64 // quality 1
	AlmostMultiplier    float64 // quality 2
	HesitantMultiplier  float64 // quality 3
	ConfidentMultiplier float64 // quality 4
	PerfectMultiplier   float64 // quality 5
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		RetentionTarget:    0.85,
		MinIntervalDays:    0.5,
		StrengthFloor:      0.1,
		PerfectRecallBonus: 0.2,

		// Default strength multipliers per quality grade
		QualityMultiplier: map[int]float64{
			QualityBlackout:  0.45,
			QualityWrong:     0.60,
			QualityAlmost:    0.85,
			QualityHesitant:  1.05,
			QualityConfident: 1.15,
			QualityPerfect:   1.30,
		},
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.RetentionTarget > 0 && config.RetentionTarget < 1 {
		params.RetentionTarget = config.RetentionTarget
	}
	if config.MinIntervalDays > 0 {
		params.MinIntervalDays = config.MinIntervalDays
	}
	if config.StrengthFloor > 0 {
		params.StrengthFloor = config.StrengthFloor
	}
	if config.PerfectRecallBonus > 0 {
		params.PerfectRecallBonus = config.PerfectRecallBonus
	}

	if config.BlackoutMultiplier > 0 {
		params.QualityMultiplier[QualityBlackout] = config.BlackoutMultiplier
	}
	if config.WrongMultiplier > 0 {
		params.QualityMultiplier[QualityWrong] = config.WrongMultiplier
	}
	if config.AlmostMultiplier > 0 {
		params.QualityMultiplier[QualityAlmost] = config.AlmostMultiplier
	}
	if config.HesitantMultiplier > 0 {
		params.QualityMultiplier[QualityHesitant] = config.HesitantMultiplier
	}
	if config.ConfidentMultiplier > 0 {
		params.QualityMultiplier[QualityConfident] = config.ConfidentMultiplier
	}
	if config.PerfectMultiplier > 0 {
		params.QualityMultiplier[QualityPerfect] = config.PerfectMultiplier
	}

	return params
}
