package domain

// RosterEntry is a User plus the passcode admins must present at login.
type RosterEntry struct {
	User     `yaml:",inline"`
	Passcode string `yaml:"passcode"`
}

// Roster is the fixed set of users allowed to sign in.
type Roster struct {
	entries []RosterEntry
}

func NewRoster(entries []RosterEntry) *Roster {
	return &Roster{entries: entries}
}

// Users lists the roster without passcodes.
func (r *Roster) Users() []User {
	users := make([]User, 0, len(r.entries))
	for _, e := range r.entries {
		users = append(users, e.User)
	}
	return users
}

// Lookup finds a user by id.
func (r *Roster) Lookup(id string) (User, bool) {
	for _, e := range r.entries {
		if e.ID == id {
			return e.User, true
		}
	}
	return User{}, false
}

// Authenticate resolves a login. Only admins with a configured passcode are checked.
func (r *Roster) Authenticate(id, passcode string) (User, error) {
	for _, e := range r.entries {
		if e.ID != id {
			continue
		}
		if e.IsAdmin && e.Passcode != "" && e.Passcode != passcode {
			return User{}, ErrBadPasscode
		}
		return e.User, nil
	}
	return User{}, ErrUnknownUser
}
