package domain

import "time"

// Repository caches descriptive metadata for a tracked origin repository.
// Rows are created on the first event referencing the repository and
// refreshed on every subsequent one; they are never deleted by the gateway.
type Repository struct {
	ID            string
	GithubID      int64
	Name          string
	FullName      string
	Description   string
	Owner         string
	HTMLURL       string
	Language      string
	IsPrivate     bool
	DefaultBranch string
	Stars         int
	Forks         int
	OpenPRs       int
	TotalPRs      int
	LastActivity  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
