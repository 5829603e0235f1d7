package gallery

import (
	"net/url"
	"strconv"
	"time"
)

type Achievement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ContestID string    `json:"contestId"`
	Place     int       `json:"place"`
	AwardedAt time.Time `json:"awardedAt"`
}

type Contest struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	StartsAt        time.Time `json:"startsAt"`
	EndsAt          time.Time `json:"endsAt"`
	SubmissionCount int       `json:"submissionCount"`
}

type Submission struct {
	ID        string `json:"id"`
	ContestID string `json:"contestId"`
	AuthorID  string `json:"authorId"`
	Title     string `json:"title"`
	ImageURL  string `json:"imageUrl"`
	Votes     int    `json:"votes"`
}

type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// ListParams page and filter list endpoints. Zero fields are omitted.
type ListParams struct {
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"perPage,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	return v
}
