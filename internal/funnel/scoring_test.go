package funnel

import (
	"math"
	"testing"
)

func testBank() *QuestionBank {
	return NewQuestionBank([]*QuizQuestion{
		{ID: "q1", Prompt: "1+1?", Options: []string{"1", "2"}, CorrectOption: 1, Points: 1},
		{ID: "q2", Prompt: "cap of France?", Options: []string{"Paris", "Lyon"}, CorrectOption: 0, Points: 1},
		{ID: "q3", Prompt: "2*3?", Options: []string{"5", "6"}, CorrectOption: 1, Points: 2},
	})
}

func TestScoreQuiz(t *testing.T) {
	bank := testBank()

	result := ScoreQuiz(map[string]int{"q1": 1, "q2": 1, "q3": 1}, bank)

	if result.Raw != 3 {
		t.Fatalf("expected raw score 3, got %v", result.Raw)
	}
	if result.Max != 4 {
		t.Fatalf("expected max score 4, got %v", result.Max)
	}
	if result.Breakdown["q2"] != 0 {
		t.Fatalf("wrong answer must award zero points, got %v", result.Breakdown["q2"])
	}
	if len(result.UnknownQuestions) != 0 {
		t.Fatalf("unexpected unknown questions: %v", result.UnknownQuestions)
	}
}

func TestScoreQuizUnansweredAndUnknown(t *testing.T) {
	bank := testBank()

	// q3 is unanswered, q9 and q8 reference no known question.
	result := ScoreQuiz(map[string]int{"q1": 1, "q9": 0, "q8": 2}, bank)

	if result.Raw != 1 {
		t.Fatalf("expected raw score 1, got %v", result.Raw)
	}
	if result.Max != 4 {
		t.Fatalf("unanswered questions must still count toward max, got %v", result.Max)
	}
	if len(result.UnknownQuestions) != 2 || result.UnknownQuestions[0] != "q8" || result.UnknownQuestions[1] != "q9" {
		t.Fatalf("expected sorted unknown ids [q8 q9], got %v", result.UnknownQuestions)
	}
	if _, graded := result.Breakdown["q9"]; graded {
		t.Fatalf("unknown question must not appear in the breakdown")
	}
}

func TestScoreQuizDeterministic(t *testing.T) {
	bank := testBank()
	answers := map[string]int{"q1": 1, "q2": 0, "q3": 0}

	first := ScoreQuiz(answers, bank)
	for i := 0; i < 5; i++ {
		again := ScoreQuiz(answers, bank)
		if again.Raw != first.Raw || again.Max != first.Max {
			t.Fatalf("re-evaluation diverged: %v/%v vs %v/%v", again.Raw, again.Max, first.Raw, first.Max)
		}
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreVideo(t *testing.T) {
	score, dims := ScoreVideo(DimensionScores{
		Confidence:    floatPtr(8),
		Communication: floatPtr(6),
		Technical:     floatPtr(7),
	}, DefaultVideoWeights())

	if dims != 3 {
		t.Fatalf("expected 3 dimensions, got %d", dims)
	}
	if score != 7 {
		t.Fatalf("expected composite 7, got %v", score)
	}
}

func TestScoreVideoPartial(t *testing.T) {
	// Missing dimensions are left out of the mean, not treated as zero.
	score, dims := ScoreVideo(DimensionScores{
		Confidence: floatPtr(8),
		Technical:  floatPtr(6),
	}, DefaultVideoWeights())

	if dims != 2 {
		t.Fatalf("expected 2 dimensions, got %d", dims)
	}
	if score != 7 {
		t.Fatalf("expected mean of available dimensions 7, got %v", score)
	}
}

func TestScoreVideoNoDimensions(t *testing.T) {
	score, dims := ScoreVideo(DimensionScores{}, DefaultVideoWeights())
	if score != 0 || dims != 0 {
		t.Fatalf("expected zero composite for empty analysis, got %v/%d", score, dims)
	}
}

func TestScoreVideoClamps(t *testing.T) {
	score, _ := ScoreVideo(DimensionScores{
		Confidence:    floatPtr(15),
		Communication: floatPtr(-3),
	}, DefaultVideoWeights())

	if score != 5 {
		t.Fatalf("expected clamped mean (10+0)/2=5, got %v", score)
	}
}

func TestScoreVideoWeighted(t *testing.T) {
	score, dims := ScoreVideo(DimensionScores{
		Confidence:    floatPtr(10),
		Communication: floatPtr(0),
		Technical:     floatPtr(0),
	}, VideoWeights{Confidence: 3, Communication: 1, Technical: 1})

	if dims != 3 {
		t.Fatalf("expected 3 dimensions, got %d", dims)
	}
	if score != 6 {
		t.Fatalf("expected weighted composite 6, got %v", score)
	}
}

func TestScoreFinalUnifiedScale(t *testing.T) {
	// A perfect quiz (8/8) and a 7.0 video composite with equal weights
	// combine to 0.5*1.0 + 0.5*0.7 = 0.85.
	got := ScoreFinal(8, 8, 7, DefaultFinalWeights())
	if math.Abs(got-0.85) > 1e-9 {
		t.Fatalf("expected final score 0.85, got %v", got)
	}
}

func TestScoreFinalEdgeCases(t *testing.T) {
	if got := ScoreFinal(5, 0, 7, DefaultFinalWeights()); got != 0.35 {
		t.Fatalf("zero quiz max must contribute 0, got %v", got)
	}
	if got := ScoreFinal(8, 8, 7, FinalWeights{}); got != 0 {
		t.Fatalf("zero weights must yield 0, got %v", got)
	}
	if got := ScoreFinal(8, 8, 10, DefaultFinalWeights()); got != 1 {
		t.Fatalf("perfect inputs must yield 1, got %v", got)
	}
}
