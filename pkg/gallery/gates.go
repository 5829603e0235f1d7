package gallery

import (
	"github.com/dmitrymomot/contestkit/pkg/query"
)

// AchievementsGate fetches the achievements of userID once it is set.
func AchievementsGate(c *query.Cache, api *API, userID *query.Param[string], opts ...query.GateOption) *query.Gate[[]Achievement] {
	return query.NewGate(c, func() (query.Request[[]Achievement], bool) {
		id, ok := userID.Lookup()
		if !ok {
			return query.Request[[]Achievement]{}, false
		}
		return query.Request[[]Achievement]{Key: AchievementsKey(id), Loader: api.Achievements(id)}, true
	}, append([]query.GateOption{query.WithWatch(userID)}, opts...)...)
}

// ContestGate fetches one contest once contestID is set.
func ContestGate(c *query.Cache, api *API, contestID *query.Param[string], opts ...query.GateOption) *query.Gate[Contest] {
	return query.NewGate(c, func() (query.Request[Contest], bool) {
		id, ok := contestID.Lookup()
		if !ok {
			return query.Request[Contest]{}, false
		}
		return query.Request[Contest]{Key: ContestKey(id), Loader: api.Contest(id)}, true
	}, append([]query.GateOption{query.WithWatch(contestID)}, opts...)...)
}

// SubmissionsGate fetches a contest's submissions once contestID is set.
func SubmissionsGate(c *query.Cache, api *API, contestID *query.Param[string], p ListParams, opts ...query.GateOption) *query.Gate[[]Submission] {
	return query.NewGate(c, func() (query.Request[[]Submission], bool) {
		id, ok := contestID.Lookup()
		if !ok {
			return query.Request[[]Submission]{}, false
		}
		return query.Request[[]Submission]{Key: SubmissionsKey(id, p), Loader: api.Submissions(id, p)}, true
	}, append([]query.GateOption{query.WithWatch(contestID)}, opts...)...)
}

// ProfileGate fetches the signed-in user while tokens holds a token.
func ProfileGate(c *query.Cache, api *API, tokens query.TokenSource, opts ...query.GateOption) *query.Gate[Profile] {
	return query.NewGate(c, func() (query.Request[Profile], bool) {
		return query.Request[Profile]{Key: ProfileKey(), Loader: api.Profile()}, true
	}, append([]query.GateOption{query.WithTokenRequired(tokens)}, opts...)...)
}

// ForgetUser drops every entry that depends on the signed-in user.
// Call it on logout so the next session never sees stale data.
func ForgetUser(c *query.Cache) int {
	return c.RemoveFunc(func(k query.Key) bool {
		return k.Resource() == ResourceProfile
	})
}
