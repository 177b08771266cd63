package orchestrator

import (
	"time"

	gh "github.com/rancher/autorebase-action/internal/github"
)

// EarliestDate returns the oldest committer date among commits. The boolean is
// false when commits is empty.
func EarliestDate(commits []gh.Commit) (time.Time, bool) {
	var earliest time.Time
	found := false

	for _, c := range commits {
		date := c.Committer.Date
		if !found || date.Before(earliest) {
			earliest = date
			found = true
		}
	}

	return earliest, found
}
