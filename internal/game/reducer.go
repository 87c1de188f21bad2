package game

import (
	"fmt"

	"family-quiz-sync/internal/domain"
)

// Event is either a local intent or an incoming snapshot.
type Event interface {
	eventName() string
}

type (
	// Login signs a roster user in on this client.
	Login struct{ User domain.User }
	// Logout signs out and leaves the active session.
	Logout struct{}
	// Reset destroys the session document.
	Reset struct{}
	// SetPhase navigates locally or, for the host, writes a session phase.
	SetPhase struct{ Phase domain.Phase }
	// CreateSession activates a saved quiz with the signed-in admin as host.
	CreateSession struct{ Quiz domain.Quiz }
	// ReturnToGame shows the running session from a dashboard.
	ReturnToGame struct{}
	// Join adds the signed-in user to the session's players.
	Join struct{}
	// StartGame moves the lobby to the first question.
	StartGame struct{}
	// NextQuestion advances from the leaderboard, ending after the last question.
	NextQuestion struct{}
	// EndGame finishes the game early.
	EndGame struct{}
	// ShowResults closes the given question when its countdown expires.
	ShowResults struct{ QuestionIndex int }
	// SubmitAnswer answers the active question.
	SubmitAnswer struct {
		AnswerIndex int
		TimeTaken   float64
	}
	// Snapshot delivers a committed document, nil when absent.
	Snapshot struct{ Record *domain.SessionRecord }
)

func (Login) eventName() string         { return "login" }
func (Logout) eventName() string        { return "logout" }
func (Reset) eventName() string         { return "reset" }
func (SetPhase) eventName() string      { return "set-phase" }
func (CreateSession) eventName() string { return "create-session" }
func (ReturnToGame) eventName() string  { return "return-to-game" }
func (Join) eventName() string          { return "join" }
func (StartGame) eventName() string     { return "start-game" }
func (NextQuestion) eventName() string  { return "next-question" }
func (EndGame) eventName() string       { return "end-game" }
func (ShowResults) eventName() string   { return "show-results" }
func (SubmitAnswer) eventName() string  { return "submit-answer" }
func (Snapshot) eventName() string      { return "snapshot" }

// EventName returns a stable label for logs.
func EventName(ev Event) string {
	return ev.eventName()
}

// Reduce is the pure transition of a client's view. Intents that touch shared truth only
// return effects; the view changes for them once the resulting snapshot arrives.
// ErrIgnoredIntent and ErrCorruptSnapshot are informational: the returned view is always safe.
func Reduce(v View, ev Event) (View, []Effect, error) {
	switch e := ev.(type) {
	case Snapshot:
		next, err := Reconcile(v, e.Record)
		return next, nil, err

	case Login:
		user := e.User
		next := v
		next.CurrentUser = &user
		next.Phase = domain.DashboardFor(&user)
		return next, nil, nil

	case Logout:
		if v.CurrentUser == nil {
			return v, nil, ignored(e)
		}
		var effects []Effect
		if v.InSession() {
			effects = append(effects, transactEffect("leave", RemovePlayer(v.CurrentUser.ID)))
		}
		return Initial(), effects, nil

	case Reset:
		if v.CurrentUser == nil || !v.CurrentUser.IsAdmin {
			return v, nil, ignored(e)
		}
		return v, []Effect{writeEffect("reset", nil)}, nil

	case SetPhase:
		if e.Phase.IsLocal() {
			if !canNavigate(v.CurrentUser, e.Phase) {
				return v, nil, ignored(e)
			}
			next := v
			next.Phase = e.Phase
			return next, nil, nil
		}
		if !v.IsHost() || !v.InSession() || !isTimedMove(v.SessionPhase, e.Phase) {
			return v, nil, ignored(e)
		}
		return v, []Effect{patchEffect("set-phase", PhasePatch(e.Phase))}, nil

	case CreateSession:
		if v.CurrentUser == nil || !v.CurrentUser.IsAdmin || v.InSession() {
			return v, nil, ignored(e)
		}
		if err := e.Quiz.Validate(); err != nil {
			return v, nil, err
		}
		return v, []Effect{writeEffect("create-session", NewSessionRecord(e.Quiz, *v.CurrentUser))}, nil

	case ReturnToGame:
		if v.CurrentUser == nil || !v.InSession() {
			return v, nil, ignored(e)
		}
		next := v
		next.Phase = v.SessionPhase
		return next, nil, nil

	case Join:
		if v.CurrentUser == nil || !v.InSession() {
			return v, nil, ignored(e)
		}
		next := v
		next.Phase = v.SessionPhase
		return next, []Effect{transactEffect("join", AddPlayer(*v.CurrentUser))}, nil

	case StartGame:
		if !v.IsHost() || v.SessionPhase != domain.PhaseLobby {
			return v, nil, ignored(e)
		}
		return v, []Effect{patchEffect("start-game", StartPatch())}, nil

	case NextQuestion:
		if !v.IsHost() || v.SessionPhase != domain.PhaseLeaderboard {
			return v, nil, ignored(e)
		}
		return v, []Effect{patchEffect("next-question", AdvancePatch(v.Quiz, v.CurrentQuestionIndex, v.Players))}, nil

	case EndGame:
		if !v.IsHost() || !v.SessionPhase.InGame() || v.SessionPhase == domain.PhaseEnd {
			return v, nil, ignored(e)
		}
		return v, []Effect{patchEffect("end-game", EndPatch())}, nil

	case ShowResults:
		if !v.IsHost() || v.SessionPhase != domain.PhaseQuestionActive || v.CurrentQuestionIndex != e.QuestionIndex {
			return v, nil, ignored(e)
		}
		return v, []Effect{transactEffect("expire-question", ExpireQuestion(e.QuestionIndex))}, nil

	case SubmitAnswer:
		if v.CurrentUser == nil || v.SessionPhase != domain.PhaseQuestionActive {
			return v, nil, ignored(e)
		}
		if me, ok := v.Me(); !ok || me.HasAnswered {
			return v, nil, ignored(e)
		}
		sub := Submission{PlayerID: v.CurrentUser.ID, AnswerIndex: e.AnswerIndex, TimeTaken: e.TimeTaken}
		return v, []Effect{transactEffect("submit-answer", AnswerTx(sub))}, nil
	}
	return v, nil, fmt.Errorf("%w: unknown event %T", domain.ErrIgnoredIntent, ev)
}

// isTimedMove reports whether a bare phase write is safe for the move. Only the two
// countdown moves qualify; every other session move rewrites more than the phase
// (scoring, question index, hasAnswered) and has its own intent.
func isTimedMove(from, to domain.Phase) bool {
	if !CanTransition(from, to) {
		return false
	}
	switch {
	case from == domain.PhaseQuestionIntro && to == domain.PhaseQuestionActive:
		return true
	case from == domain.PhaseQuestionResults && to == domain.PhaseLeaderboard:
		return true
	}
	return false
}

func ignored(ev Event) error {
	return fmt.Errorf("%w: %s", domain.ErrIgnoredIntent, ev.eventName())
}
