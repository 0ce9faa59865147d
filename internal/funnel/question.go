package funnel

// QuizQuestion is one multiple-choice question of the quiz bank. Questions
// are treated as immutable once a submission has been scored against them:
// re-evaluation is a separate, explicit operation and never happens as a side
// effect of editing the bank.
type QuizQuestion struct {
	ID            string
	Prompt        string
	Options       []string
	CorrectOption int
	Points        float64
	Category      string
}

// QuestionBank indexes quiz questions by id.
type QuestionBank struct {
	questions []*QuizQuestion
	byID      map[string]*QuizQuestion
}

// NewQuestionBank builds a bank from the stored question rows.
func NewQuestionBank(questions []*QuizQuestion) *QuestionBank {
	byID := make(map[string]*QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &QuestionBank{questions: questions, byID: byID}
}

// ByID returns the question with the given id, or nil.
func (b *QuestionBank) ByID(id string) *QuizQuestion {
	return b.byID[id]
}

// MaxScore is the sum of all question point values.
func (b *QuestionBank) MaxScore() float64 {
	var total float64
	for _, q := range b.questions {
		total += q.Points
	}
	return total
}

func (b *QuestionBank) Len() int { return len(b.questions) }
