package game

import (
	"errors"
	"testing"

	"family-quiz-sync/internal/domain"
)

func TestReconcileAbsentDocumentFallsBack(t *testing.T) {
	v := signedIn(kid)
	v, _ = Reconcile(v, activeRecord(kid))
	if v.Phase != domain.PhaseQuestionActive {
		t.Fatalf("expected active, got %s", v.Phase)
	}

	v, err := Reconcile(v, nil)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if v.Phase != domain.PhasePlayerDashboard {
		t.Fatalf("expected player dashboard, got %s", v.Phase)
	}
	if v.Quiz != nil || len(v.Players) != 0 || len(v.Answers) != 0 || v.SessionPhase != "" {
		t.Fatalf("expected game fields cleared, got %+v", v)
	}
	if v.CurrentUser == nil || v.CurrentUser.ID != kid.ID {
		t.Fatalf("expected user kept")
	}
}

func TestReconcileRejectsQuizlessGamePhase(t *testing.T) {
	v := signedIn(mum)
	rec := &domain.SessionRecord{Phase: domain.PhaseLobby}

	v, err := Reconcile(v, rec)
	if !errors.Is(err, domain.ErrCorruptSnapshot) {
		t.Fatalf("expected corrupt snapshot, got %v", err)
	}
	if v.Phase != domain.PhaseAdminDashboard || v.Quiz != nil {
		t.Fatalf("expected admin dashboard fallback, got %+v", v)
	}
}

func TestReconcileAcceptsFieldsVerbatim(t *testing.T) {
	rec := activeRecord(kid)
	rec.CurrentQuestionIndex = 1
	rec.Players[1].Score = 420
	rec.Answers = map[string]domain.PlayerAnswer{
		domain.AnswerKey(1, kid.ID): {PlayerID: kid.ID, QuestionIndex: 1, AnswerIndex: 2},
		domain.AnswerKey(1, mum.ID): {PlayerID: mum.ID, QuestionIndex: 1, AnswerIndex: 0, IsCorrect: true},
	}

	v, err := Reconcile(signedIn(kid), rec)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if v.Phase != domain.PhaseQuestionActive || v.SessionPhase != domain.PhaseQuestionActive {
		t.Fatalf("unexpected phase %s/%s", v.Phase, v.SessionPhase)
	}
	if v.CurrentQuestionIndex != 1 || v.Players[1].Score != 420 {
		t.Fatalf("fields not taken verbatim: %+v", v)
	}
	if len(v.Answers) != 2 || v.Answers[0].PlayerID != "kid" || v.Answers[1].PlayerID != "mum" {
		t.Fatalf("expected answers sorted by player, got %+v", v.Answers)
	}
}

func TestReconcileUnknownPhaseShowsDashboard(t *testing.T) {
	rec := NewSessionRecord(sampleQuiz(), mum)
	rec.Phase = "warming-up"

	v, err := Reconcile(signedIn(kid), rec)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if v.Phase != domain.PhasePlayerDashboard || v.InSession() {
		t.Fatalf("expected dashboard outside a session, got %+v", v)
	}
}

func signedIn(u domain.User) View {
	v, _, _ := Reduce(Initial(), Login{User: u})
	return v
}
