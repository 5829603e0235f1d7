package gallery

import (
	"context"
	"net/url"

	"github.com/dmitrymomot/contestkit/pkg/query"
	"github.com/dmitrymomot/contestkit/pkg/transport"
)

// Resource names used in cache keys.
const (
	ResourceAchievements = "achievements"
	ResourceContests     = "contests"
	ResourceContest      = "contest"
	ResourceSubmissions  = "submissions"
	ResourceProfile      = "profile"
)

// API builds cache keys and loaders for the gallery backend.
type API struct {
	r transport.Requester
}

// New creates an API over r.
func New(r transport.Requester) *API {
	return &API{r: r}
}

// AchievementsKey identifies the achievements of one user.
func AchievementsKey(userID string) query.Key {
	return query.MustKey(ResourceAchievements, map[string]string{"userId": userID})
}

// ContestsKey identifies one page of the contest list.
func ContestsKey(p ListParams) query.Key {
	return query.MustKey(ResourceContests, p)
}

// ContestKey identifies one contest.
func ContestKey(id string) query.Key {
	return query.MustKey(ResourceContest, map[string]string{"id": id})
}

// SubmissionsKey identifies one page of a contest's submissions.
func SubmissionsKey(contestID string, p ListParams) query.Key {
	return query.MustKey(ResourceSubmissions, map[string]any{"contestId": contestID, "list": p})
}

// ProfileKey identifies the signed-in user's profile.
func ProfileKey() query.Key {
	return query.MustKey(ResourceProfile, nil)
}

// Achievements loads GET users/{id}/achievements.
func (a *API) Achievements(userID string) query.Loader[[]Achievement] {
	return get[[]Achievement](a.r, "users/"+url.PathEscape(userID)+"/achievements", nil)
}

// Contests loads GET contests.
func (a *API) Contests(p ListParams) query.Loader[[]Contest] {
	return get[[]Contest](a.r, "contests", p.values())
}

// Contest loads GET contests/{id}.
func (a *API) Contest(id string) query.Loader[Contest] {
	return get[Contest](a.r, "contests/"+url.PathEscape(id), nil)
}

// Submissions loads GET contests/{id}/submissions.
func (a *API) Submissions(contestID string, p ListParams) query.Loader[[]Submission] {
	return get[[]Submission](a.r, "contests/"+url.PathEscape(contestID)+"/submissions", p.values())
}

// Profile loads the signed-in user. The transport adds the bearer token.
func (a *API) Profile() query.Loader[Profile] {
	return get[Profile](a.r, "me", nil)
}

func get[T any](r transport.Requester, path string, params url.Values) query.Loader[T] {
	return func(ctx context.Context) (T, error) {
		return transport.Get[T](ctx, r, path, transport.RequestOptions{Params: params})
	}
}
