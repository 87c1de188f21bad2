package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when a quiz breaks the authoring rules.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrUnknownUser is returned when a login names a user outside the roster.
	ErrUnknownUser = errors.New("unknown user")
	// ErrBadPasscode is returned when an admin login carries the wrong passcode.
	ErrBadPasscode = errors.New("bad passcode")
	// ErrStoreUnavailable wraps transport failures of the shared session store.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrCorruptSnapshot marks a document in a quiz-required phase without a quiz.
	ErrCorruptSnapshot = errors.New("corrupt session snapshot")
	// ErrIgnoredIntent marks a local intent that has no effect in the current phase.
	ErrIgnoredIntent = errors.New("intent ignored in current phase")
)
