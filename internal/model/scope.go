package model

// Scope is the (owner, session) pair isolating one user's session data.
// Every store write and read carries an explicit Scope; core logic never
// reads ambient session state.
type Scope struct {
	Owner   string
	Session string
}

func (s Scope) Valid() bool {
	return s.Owner != "" && s.Session != ""
}
