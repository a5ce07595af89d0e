package models

// Account is the canonical user record. Password is stored and compared
// as plain text, matching the wire snapshot and file formats.
type Account struct {
	Name     string
	Password string
	Online   bool
}

// Group is the canonical group record, shared by the codec, the store
// and the directories. Members always starts with the creator.
type Group struct {
	ID      string
	Name    string
	Creator string
	Members []string
}

// IsMember reports whether username is in the member list.
func (g *Group) IsMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}
