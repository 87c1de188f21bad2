package game

import (
	"fmt"
	"sort"

	"family-quiz-sync/internal/domain"
)

// Reconcile turns a raw document (nil when absent) into the next view. It never fails hard:
// an absent or corrupt document falls back to the caller's dashboard, and a corrupt one is
// reported through ErrCorruptSnapshot so the caller can log it.
func Reconcile(current View, rec *domain.SessionRecord) (View, error) {
	fallback := Initial()
	fallback.CurrentUser = current.CurrentUser
	fallback.Phase = domain.DashboardFor(current.CurrentUser)

	if rec == nil {
		return fallback, nil
	}
	if rec.Phase.RequiresQuiz() && rec.Quiz == nil {
		return fallback, fmt.Errorf("%w: phase %q arrived without a quiz", domain.ErrCorruptSnapshot, rec.Phase)
	}

	next := View{
		Phase:                fallback.Phase,
		CurrentUser:          current.CurrentUser,
		Quiz:                 rec.Quiz,
		Players:              rec.Players,
		CurrentQuestionIndex: rec.CurrentQuestionIndex,
		Answers:              answerList(rec.Answers),
	}
	if next.Players == nil {
		next.Players = []domain.Player{}
	}
	// Empty, unknown or local phases in a shared document are not game states.
	if rec.Phase.RequiresQuiz() {
		next.Phase = rec.Phase
		next.SessionPhase = rec.Phase
	}
	return next, nil
}

func answerList(answers map[string]domain.PlayerAnswer) []domain.PlayerAnswer {
	out := make([]domain.PlayerAnswer, 0, len(answers))
	for _, a := range answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestionIndex != out[j].QuestionIndex {
			return out[i].QuestionIndex < out[j].QuestionIndex
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}
