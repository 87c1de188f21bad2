package game

import "family-quiz-sync/internal/domain"

// transitions is the legal phase graph. Absent documents and resets return to a dashboard
// from anywhere; that path goes through Reconcile, not this table.
var transitions = map[domain.Phase][]domain.Phase{
	domain.PhaseLogin:              {domain.PhaseAdminDashboard, domain.PhasePlayerDashboard},
	domain.PhaseAdminDashboard:     {domain.PhaseQuizCreationChoice, domain.PhaseCreatingQuiz, domain.PhaseLobby, domain.PhaseLogin},
	domain.PhaseQuizCreationChoice: {domain.PhaseCreatingQuiz, domain.PhaseAdminDashboard},
	domain.PhaseCreatingQuiz:       {domain.PhaseAdminDashboard},
	domain.PhasePlayerDashboard:    {domain.PhaseLobby, domain.PhaseLogin},
	domain.PhaseLobby:              {domain.PhaseQuestionIntro},
	domain.PhaseQuestionIntro:      {domain.PhaseQuestionActive, domain.PhaseEnd},
	domain.PhaseQuestionActive:     {domain.PhaseQuestionResults, domain.PhaseEnd},
	domain.PhaseQuestionResults:    {domain.PhaseLeaderboard, domain.PhaseEnd},
	domain.PhaseLeaderboard:        {domain.PhaseQuestionIntro, domain.PhaseEnd},
	domain.PhaseEnd:                {},
}

// CanTransition reports whether the state machine allows moving from one phase to another.
func CanTransition(from, to domain.Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// canNavigate reports whether a user may switch to a local-only phase.
func canNavigate(user *domain.User, to domain.Phase) bool {
	if user == nil {
		return false
	}
	switch to {
	case domain.PhaseAdminDashboard, domain.PhaseQuizCreationChoice, domain.PhaseCreatingQuiz:
		return user.IsAdmin
	case domain.PhasePlayerDashboard:
		return !user.IsAdmin
	}
	return false
}
