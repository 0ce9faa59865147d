package funnel

import "sort"

// VideoWeights weight the three AI dimensions of the video composite.
type VideoWeights struct {
	Confidence    float64 `mapstructure:"confidence"`
	Communication float64 `mapstructure:"communication"`
	Technical     float64 `mapstructure:"technical"`
}

// DefaultVideoWeights weights the dimensions equally.
func DefaultVideoWeights() VideoWeights {
	return VideoWeights{Confidence: 1, Communication: 1, Technical: 1}
}

// FinalWeights weight the normalized quiz score against the video composite
// in the final score. Both inputs are brought to the unified [0,1] scale
// before combination.
type FinalWeights struct {
	Quiz  float64 `mapstructure:"quiz"`
	Video float64 `mapstructure:"video"`
}

// DefaultFinalWeights weights quiz and video equally.
func DefaultFinalWeights() FinalWeights {
	return FinalWeights{Quiz: 1, Video: 1}
}

// QuizResult is the outcome of scoring one submission.
type QuizResult struct {
	Raw float64
	Max float64
	// Breakdown maps a question id to the points awarded for it.
	Breakdown map[string]float64
	// UnknownQuestions lists answer ids that reference no known question.
	// They are ignored for scoring and surfaced as data-quality warnings.
	UnknownQuestions []string
}

// Normalized returns the raw score as a fraction of the maximum possible.
func (r QuizResult) Normalized() float64 {
	if r.Max <= 0 {
		return 0
	}
	return r.Raw / r.Max
}

// ScoreQuiz evaluates a submission against the question bank. Grading is
// exact-match against the recorded correct option: deterministic and
// reproducible. Unanswered questions score zero and unknown question ids are
// ignored, neither is an error.
func ScoreQuiz(answers map[string]int, bank *QuestionBank) QuizResult {
	result := QuizResult{
		Max:       bank.MaxScore(),
		Breakdown: make(map[string]float64, len(answers)),
	}

	for id, selected := range answers {
		question := bank.ByID(id)
		if question == nil {
			result.UnknownQuestions = append(result.UnknownQuestions, id)
			continue
		}
		awarded := 0.0
		if selected == question.CorrectOption {
			awarded = question.Points
		}
		result.Breakdown[id] = awarded
		result.Raw += awarded
	}

	sort.Strings(result.UnknownQuestions)
	return result
}

// ScoreVideo combines the available AI dimensions into a composite on the
// 0-10 scale. Each dimension is clamped to [0,10] before weighting. Missing
// dimensions are left out of the weighted mean rather than treated as zero:
// a partial analysis must never sink a candidate silently. The returned count
// tells the caller how many dimensions contributed.
func ScoreVideo(d DimensionScores, w VideoWeights) (score float64, dimensions int) {
	type dim struct {
		value  *float64
		weight float64
	}
	dims := []dim{
		{d.Confidence, w.Confidence},
		{d.Communication, w.Communication},
		{d.Technical, w.Technical},
	}

	var weighted, totalWeight float64
	for _, dm := range dims {
		if dm.value == nil || dm.weight <= 0 {
			continue
		}
		weighted += clamp(*dm.value, 0, 10) * dm.weight
		totalWeight += dm.weight
		dimensions++
	}

	if totalWeight == 0 {
		return 0, 0
	}
	return weighted / totalWeight, dimensions
}

// ScoreFinal combines the quiz result and the video composite into the final
// score on the unified [0,1] scale: the quiz score enters as a fraction of
// its maximum, the video composite is divided by 10.
func ScoreFinal(quizRaw, quizMax, videoComposite float64, w FinalWeights) float64 {
	totalWeight := w.Quiz + w.Video
	if totalWeight <= 0 {
		return 0
	}

	quiz := 0.0
	if quizMax > 0 {
		quiz = clamp(quizRaw/quizMax, 0, 1)
	}
	video := clamp(videoComposite/10, 0, 1)

	return (quiz*w.Quiz + video*w.Video) / totalWeight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
