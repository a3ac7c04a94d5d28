package model

import "time"

// User is an account created on first GitHub login.
//
// GitHubID is GitHub's stable numeric user ID and is UNIQUE in the users
// table, so one GitHub account maps to exactly one row. ID is our own xid,
// which is what snippets, folders and curriculums reference as their owner.
// Email may be empty when the user hides it on GitHub.
type User struct {
	ID        string    `json:"id"`
	GitHubID  int64     `json:"githubId"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
