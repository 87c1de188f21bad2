package domain

// Phase is one state of the session state machine.
type Phase string

const (
	PhaseLogin              Phase = "login"
	PhaseAdminDashboard     Phase = "admin-dashboard"
	PhasePlayerDashboard    Phase = "player-dashboard"
	PhaseQuizCreationChoice Phase = "quiz-creation-choice"
	PhaseCreatingQuiz       Phase = "creating-quiz"
	PhaseLobby              Phase = "lobby"
	PhaseQuestionIntro      Phase = "question-intro"
	PhaseQuestionActive     Phase = "question-active"
	PhaseQuestionResults    Phase = "question-results"
	PhaseLeaderboard        Phase = "leaderboard"
	PhaseEnd                Phase = "end"
)

// RequiresQuiz reports whether a document in this phase must carry a quiz.
func (p Phase) RequiresQuiz() bool {
	switch p {
	case PhaseLobby, PhaseQuestionIntro, PhaseQuestionActive, PhaseQuestionResults, PhaseLeaderboard, PhaseEnd:
		return true
	}
	return false
}

// IsLocal reports whether the phase is client-side navigation that never reaches the shared document.
func (p Phase) IsLocal() bool {
	switch p {
	case PhaseLogin, PhaseAdminDashboard, PhasePlayerDashboard, PhaseQuizCreationChoice, PhaseCreatingQuiz:
		return true
	}
	return false
}

// InGame reports whether the phase belongs to a running game (lobby excluded).
func (p Phase) InGame() bool {
	return p.RequiresQuiz() && p != PhaseLobby
}

// DashboardFor returns the landing phase for a signed-in user, or login when nobody is signed in.
func DashboardFor(user *User) Phase {
	switch {
	case user == nil:
		return PhaseLogin
	case user.IsAdmin:
		return PhaseAdminDashboard
	default:
		return PhasePlayerDashboard
	}
}
