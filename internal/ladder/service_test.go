package ladder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/rift-ladder/internal/database"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/metrics"
	"github.com/mauv0809/rift-ladder/internal/notifier"
	"github.com/mauv0809/rift-ladder/internal/pubsub"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/mauv0809/rift-ladder/internal/settlement"
	"github.com/mauv0809/rift-ladder/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1750000000, 0)

type testEnv struct {
	svc      *Service
	db       *sql.DB
	store    store.Store
	metrics  *metrics.Mock
	pubsub   *pubsub.MockPubSubClient
	notifier *notifier.Mock
}

// setupTestService wires a Service to an in-memory database and mocks.
func setupTestService(t *testing.T) (*testEnv, func()) {
	t.Helper()
	db, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		store:    store.New(db),
		metrics:  metrics.NewMock(),
		pubsub:   pubsub.NewMock(),
		notifier: notifier.NewMock(),
	}
	env.svc = NewService(env.store, store.DefaultGuildSettings(), env.metrics, env.pubsub, env.notifier,
		WithClock(func() time.Time { return now }))
	return env, func() { db.Close() }
}

// seedRatings stores established (post-placement) ratings in guild g1.
func (e *testEnv) seedRatings(t *testing.T, ratings map[string]int) {
	t.Helper()
	var rows []rating.PlayerRating
	for id, r := range ratings {
		rows = append(rows, rating.PlayerRating{
			GuildID: "g1", PlayerID: id, Rating: r, PeakRating: r,
			PlacementGames: rating.DefaultPlacementThreshold, UpdatedAt: now,
		})
	}
	require.NoError(t, e.store.SaveRatings(context.Background(), rows))
}

// fillQueue opens a queue sized for players in guild g1 and joins them in
// order, returning the formed match.
func (e *testEnv) fillQueue(t *testing.T, channelID string, players ...string) *match.Match {
	t.Helper()
	ctx := context.Background()
	q, err := e.svc.OpenQueue(ctx, "g1", channelID, len(players))
	require.NoError(t, err)

	var res *JoinResult
	for _, p := range players {
		res, err = e.svc.JoinQueue(ctx, q.ID, p, "FILL", "FILL")
		require.NoError(t, err)
	}
	require.NotNil(t, res.Match)
	return res.Match
}

func (e *testEnv) vote(t *testing.T, matchID, playerID string, choice match.Choice) *VoteResult {
	t.Helper()
	res, err := e.svc.CastVote(context.Background(), matchID, playerID, string(choice))
	require.NoError(t, err)
	return res
}

func topics(calls []pubsub.SendMessageCall) []pubsub.EventType {
	out := make([]pubsub.EventType, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Topic)
	}
	return out
}

func TestEndToEnd_TwoPlacementPlayers(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	q, err := env.svc.OpenQueue(ctx, "g1", "c1", 2)
	require.NoError(t, err)

	first, err := env.svc.JoinQueue(ctx, q.ID, "alice", "mid", "top")
	require.NoError(t, err)
	assert.Nil(t, first.Match)
	assert.Len(t, first.Entries, 1)

	second, err := env.svc.JoinQueue(ctx, q.ID, "bob", "", "")
	require.NoError(t, err)
	require.NotNil(t, second.Match)
	assert.Equal(t, store.QueueConsumed, second.Queue.Status)
	assert.Empty(t, second.Entries)

	m := second.Match
	assert.Equal(t, match.Assignment{Team: match.TeamBlue, Role: match.RoleMid, RatingAtFormation: 1200}, m.Assignments["alice"])
	assert.Equal(t, match.Assignment{Team: match.TeamRed, Role: match.RoleTop, RatingAtFormation: 1200}, m.Assignments["bob"])

	v := env.vote(t, m.ID, "alice", match.ChoiceBlue)
	assert.Equal(t, VoteResult{Changed: true, Tally: match.Tally{Blue: 1}, TotalParticipants: 2, VotesRequired: 2}, *v)

	_, err = env.svc.ConfirmMatch(ctx, m.ID)
	assert.ErrorIs(t, err, match.ErrInsufficientVotes)

	v = env.vote(t, m.ID, "bob", match.ChoiceBlue)
	assert.True(t, v.Decided)

	res, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.ChoiceBlue, res.Winner)
	assert.Equal(t, []settlement.Change{
		{PlayerID: "alice", Team: match.TeamBlue, Role: match.RoleMid, RatingBefore: 1200, RatingAfter: 1232, Change: 32},
		{PlayerID: "bob", Team: match.TeamRed, Role: match.RoleTop, RatingBefore: 1200, RatingAfter: 1168, Change: -32},
	}, res.RatingChanges)

	alice, err := env.svc.GetRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1232, alice.Rating)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 1, alice.PlacementGames)
	assert.Equal(t, 1232, alice.PeakRating)

	bob, err := env.svc.GetRating(ctx, "g1", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1168, bob.Rating)
	assert.Equal(t, 1, bob.Losses)
	assert.Equal(t, 1200, bob.PeakRating)

	view, err := env.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, view.Status)
	require.NotNil(t, view.Winner)
	assert.Equal(t, match.ChoiceBlue, *view.Winner)
	assert.NotNil(t, view.ResolvedAt)
	assert.Equal(t, res.RatingChanges, view.RatingChanges)

	assert.Equal(t, 2, env.metrics.QueueJoins())
	assert.Equal(t, 1, env.metrics.MatchesFormed())
	assert.Equal(t, 2, env.metrics.VotesCast())
	assert.Equal(t, 1, env.metrics.MatchesConfirmed())
	assert.Len(t, env.metrics.ConfirmationDurations(), 1)

	assert.Equal(t, []pubsub.EventType{pubsub.EventMatchFormed, pubsub.EventMatchConfirmed}, topics(env.pubsub.Calls()))
	formed, confirmed, cancelled := env.notifier.Counts()
	assert.Equal(t, [3]int{1, 1, 0}, [3]int{formed, confirmed, cancelled})
}

func TestEndToEnd_FourPlayersMajority(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	env.seedRatings(t, map[string]int{"a": 1400, "b": 1300, "c": 1200, "d": 1100})
	m := env.fillQueue(t, "c1", "a", "b", "c", "d")

	assert.Equal(t, match.TeamBlue, m.Assignments["a"].Team)
	assert.Equal(t, match.TeamRed, m.Assignments["b"].Team)
	assert.Equal(t, match.TeamRed, m.Assignments["c"].Team)
	assert.Equal(t, match.TeamBlue, m.Assignments["d"].Team)

	env.vote(t, m.ID, "a", match.ChoiceBlue)
	env.vote(t, m.ID, "d", match.ChoiceRed)
	env.vote(t, m.ID, "b", match.ChoiceBlue)
	v := env.vote(t, m.ID, "c", match.ChoiceBlue)
	assert.Equal(t, 3, v.VotesRequired)
	assert.True(t, v.Decided)

	res, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.ChoiceBlue, res.Winner)

	after := map[string]int{}
	for _, c := range res.RatingChanges {
		after[c.PlayerID] = c.RatingAfter
	}
	assert.Equal(t, map[string]int{"a": 1409, "d": 1123, "b": 1282, "c": 1186}, after)

	view, err := env.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.Tally{Blue: 3, Red: 1}, view.Tally, "the dissenting vote stays counted")
}

func TestEndToEnd_ThreeWaySplitIsUndecided(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	q, err := env.svc.OpenQueue(ctx, "g1", "c1", 4)
	require.NoError(t, err)
	for _, p := range []string{"p1", "p2", "p3"} {
		_, err := env.svc.JoinQueue(ctx, q.ID, p, "", "")
		require.NoError(t, err)
	}
	m, err := env.svc.StartMatch(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, m.Assignments, 3)

	env.vote(t, m.ID, "p1", match.ChoiceBlue)
	env.vote(t, m.ID, "p2", match.ChoiceRed)
	v := env.vote(t, m.ID, "p3", match.ChoiceDraw)
	assert.Equal(t, 2, v.VotesRequired)
	assert.False(t, v.Decided)

	_, err = env.svc.ConfirmMatch(ctx, m.ID)
	assert.ErrorIs(t, err, match.ErrInsufficientVotes)

	view, err := env.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusVoting, view.Status)
	_, err = env.svc.GetRating(ctx, "g1", "p1")
	assert.ErrorIs(t, err, match.ErrNotFound, "no rating is written before confirmation")
}

func TestConfirmMatch_SecondCallChangesNothing(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	m := env.fillQueue(t, "c1", "alice", "bob")
	env.vote(t, m.ID, "alice", match.ChoiceRed)
	env.vote(t, m.ID, "bob", match.ChoiceRed)

	_, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err)

	snapshot := func() []rating.PlayerRating {
		var rows []rating.PlayerRating
		for _, id := range []string{"alice", "bob"} {
			r, err := env.svc.GetRating(ctx, "g1", id)
			require.NoError(t, err)
			rows = append(rows, *r)
		}
		return rows
	}
	before := snapshot()

	for range 3 {
		_, err = env.svc.ConfirmMatch(ctx, m.ID)
		assert.ErrorIs(t, err, match.ErrInvalidState)
	}
	assert.Equal(t, before, snapshot())
	assert.Equal(t, 1, env.metrics.MatchesConfirmed())
	_, confirmed, _ := env.notifier.Counts()
	assert.Equal(t, 1, confirmed)
}

func TestConfirmMatch_ConcurrentCallsApplyOnce(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	m := env.fillQueue(t, "c1", "alice", "bob")
	env.vote(t, m.ID, "alice", match.ChoiceBlue)
	env.vote(t, m.ID, "bob", match.ChoiceBlue)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.ConfirmMatch(ctx, m.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, match.ErrInvalidState)
	}
	assert.Equal(t, 1, succeeded)

	alice, err := env.svc.GetRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1232, alice.Rating)
	assert.Equal(t, 1, alice.Wins)
}

func TestConfirmMatch_Draw(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	m := env.fillQueue(t, "c1", "alice", "bob")
	env.vote(t, m.ID, "alice", match.ChoiceDraw)
	env.vote(t, m.ID, "bob", match.ChoiceDraw)

	res, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.ChoiceDraw, res.Winner)
	for _, c := range res.RatingChanges {
		assert.Zero(t, c.Change)
	}

	alice, err := env.svc.GetRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1200, alice.Rating)
	assert.Equal(t, 1, alice.Draws)
	assert.Equal(t, 1, alice.PlacementGames)
}

func TestConfirmMatch_FailedWriteLeavesMatchConfirmable(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	m := env.fillQueue(t, "c1", "alice", "bob")
	env.vote(t, m.ID, "alice", match.ChoiceBlue)
	env.vote(t, m.ID, "bob", match.ChoiceBlue)

	_, err := env.db.Exec(`ALTER TABLE match_participants RENAME TO match_participants_gone`)
	require.NoError(t, err)

	_, err = env.svc.ConfirmMatch(ctx, m.ID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, match.ErrInvalidState))

	view, err := env.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusVoting, view.Status)
	_, err = env.svc.GetRating(ctx, "g1", "alice")
	assert.ErrorIs(t, err, match.ErrNotFound)

	_, err = env.db.Exec(`ALTER TABLE match_participants_gone RENAME TO match_participants`)
	require.NoError(t, err)

	res, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err, "retrying the whole confirmation succeeds")
	assert.Equal(t, match.ChoiceBlue, res.Winner)
}

func TestConfirmMatch_UsesGuildSettings(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	settings := store.DefaultGuildSettings()
	settings.KPlacement = 40
	_, err := env.svc.UpdateGuildSettings(ctx, "g1", settings)
	require.NoError(t, err)

	m := env.fillQueue(t, "c1", "alice", "bob")
	env.vote(t, m.ID, "alice", match.ChoiceBlue)
	env.vote(t, m.ID, "bob", match.ChoiceBlue)

	res, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1220, res.RatingChanges[0].RatingAfter)
}

func TestCastVote(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	m := env.fillQueue(t, "c1", "alice", "bob", "carol", "dave")

	t.Run("missing match", func(t *testing.T) {
		_, err := env.svc.CastVote(ctx, "missing", "alice", "BLUE")
		assert.ErrorIs(t, err, match.ErrNotFound)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := env.svc.CastVote(ctx, m.ID, "mallory", "BLUE")
		assert.ErrorIs(t, err, match.ErrForbidden)
	})

	t.Run("invalid choice", func(t *testing.T) {
		_, err := env.svc.CastVote(ctx, m.ID, "alice", "PURPLE")
		assert.ErrorIs(t, err, match.ErrInvalidChoice)
	})

	t.Run("repeat is a no-op", func(t *testing.T) {
		first := env.vote(t, m.ID, "alice", match.ChoiceBlue)
		again := env.vote(t, m.ID, "alice", match.ChoiceBlue)
		assert.True(t, first.Changed)
		assert.False(t, again.Changed)
		assert.Equal(t, first.Tally, again.Tally)
	})

	t.Run("change moves the vote", func(t *testing.T) {
		v := env.vote(t, m.ID, "alice", match.ChoiceRed)
		assert.True(t, v.Changed)
		assert.Equal(t, match.Tally{Red: 1}, v.Tally)

		votes, err := env.svc.ListVotes(ctx, m.ID)
		require.NoError(t, err)
		require.Len(t, votes, 1)
		assert.Equal(t, match.ChoiceRed, votes[0].Choice)
	})

	t.Run("closed match", func(t *testing.T) {
		_, err := env.svc.CancelMatch(ctx, m.ID)
		require.NoError(t, err)
		_, err = env.svc.CastVote(ctx, m.ID, "bob", "BLUE")
		assert.ErrorIs(t, err, match.ErrInvalidState)
	})

	_, err := env.svc.ListVotes(ctx, "missing")
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestCastVote_ConcurrentVotesAreNotLost(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	players := make([]string, 10)
	for i := range players {
		players[i] = fmt.Sprintf("p%d", i)
	}
	m := env.fillQueue(t, "c1", players...)

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, err := env.svc.CastVote(ctx, m.ID, p, "BLUE")
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	view, err := env.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.Tally{Blue: 10}, view.Tally)
}

func TestCancelMatch(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	m := env.fillQueue(t, "c1", "alice", "bob")

	cancelled, err := env.svc.CancelMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.ResolvedAt)

	_, err = env.svc.CancelMatch(ctx, m.ID)
	assert.ErrorIs(t, err, match.ErrInvalidState)
	_, err = env.svc.ConfirmMatch(ctx, m.ID)
	assert.ErrorIs(t, err, match.ErrInvalidState)
	_, err = env.svc.CancelMatch(ctx, "missing")
	assert.ErrorIs(t, err, match.ErrNotFound)

	assert.Equal(t, 1, env.metrics.MatchesCancelled())
	_, _, n := env.notifier.Counts()
	assert.Equal(t, 1, n)
	assert.Contains(t, topics(env.pubsub.Calls()), pubsub.EventMatchCancelled)
}

func TestOpenQueue(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	q, err := env.svc.OpenQueue(ctx, "g1", "c1", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, q.Capacity)

	again, err := env.svc.OpenQueue(ctx, "g1", "c1", 4)
	require.NoError(t, err)
	assert.Equal(t, q.ID, again.ID, "reopening returns the open queue")

	settings := store.DefaultGuildSettings()
	settings.TeamSize = 3
	_, err = env.svc.UpdateGuildSettings(ctx, "g1", settings)
	require.NoError(t, err)
	small, err := env.svc.OpenQueue(ctx, "g1", "c2", 0)
	require.NoError(t, err)
	assert.Equal(t, 6, small.Capacity)

	_, err = env.svc.OpenQueue(ctx, "g1", "c3", 1)
	assert.ErrorIs(t, err, match.ErrInvalidInput)
}

func TestJoinQueue_Errors(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	q, err := env.svc.OpenQueue(ctx, "g1", "c1", 2)
	require.NoError(t, err)

	_, err = env.svc.JoinQueue(ctx, "missing", "alice", "", "")
	assert.ErrorIs(t, err, match.ErrNotFound)

	_, err = env.svc.JoinQueue(ctx, q.ID, "alice", "", "")
	require.NoError(t, err)
	_, err = env.svc.JoinQueue(ctx, q.ID, "alice", "", "")
	assert.ErrorIs(t, err, match.ErrAlreadyJoined)

	_, err = env.svc.StartMatch(ctx, q.ID)
	assert.ErrorIs(t, err, match.ErrInvalidState, "one player cannot start a match")

	assert.ErrorIs(t, env.svc.LeaveQueue(ctx, q.ID, "bob"), match.ErrNotFound)
	require.NoError(t, env.svc.LeaveQueue(ctx, q.ID, "alice"))
	view, err := env.svc.GetQueue(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)

	_, err = env.svc.JoinQueue(ctx, q.ID, "alice", "", "")
	require.NoError(t, err)
	res, err := env.svc.JoinQueue(ctx, q.ID, "bob", "", "")
	require.NoError(t, err)
	require.NotNil(t, res.Match)

	_, err = env.svc.JoinQueue(ctx, q.ID, "carol", "", "")
	assert.ErrorIs(t, err, match.ErrCapacityExceeded)
	_, err = env.svc.StartMatch(ctx, q.ID)
	assert.ErrorIs(t, err, match.ErrInvalidState)
	assert.ErrorIs(t, env.svc.LeaveQueue(ctx, q.ID, "alice"), match.ErrInvalidState)
}

func TestJoinQueue_RaceForLastSlot(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	q, err := env.svc.OpenQueue(ctx, "g1", "c1", 2)
	require.NoError(t, err)
	_, err = env.svc.JoinQueue(ctx, q.ID, "alice", "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.JoinQueue(ctx, q.ID, fmt.Sprintf("p%d", i), "", "")
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, match.ErrCapacityExceeded)
	}
	assert.Equal(t, 1, joined)
	assert.Equal(t, 1, env.metrics.MatchesFormed(), "the balancer runs once")

	view, err := env.svc.GetQueue(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, store.QueueConsumed, view.Queue.Status)
	m, err := env.svc.GetMatch(ctx, view.Queue.MatchID)
	require.NoError(t, err)
	assert.Len(t, m.Assignments, 2)
}

func TestJoinQueue_SamePlayerRace(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	q, err := env.svc.OpenQueue(ctx, "g1", "c1", 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.JoinQueue(ctx, q.ID, "alice", "", "")
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		assert.ErrorIs(t, err, match.ErrAlreadyJoined)
	}
	assert.Equal(t, 1, joined)
}

func TestFormMatch_UsesCurrentRatings(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()

	env.seedRatings(t, map[string]int{"alice": 1500, "bob": 1000, "carol": 1400, "dave": 1100})
	m := env.fillQueue(t, "c1", "dave", "carol", "bob", "alice")

	want := map[string]match.Team{"alice": match.TeamBlue, "carol": match.TeamRed, "dave": match.TeamRed, "bob": match.TeamBlue}
	for id, team := range want {
		assert.Equal(t, team, m.Assignments[id].Team, id)
	}
	assert.Equal(t, 1500, m.Assignments["alice"].RatingAtFormation)
	assert.Equal(t, 1000, m.Assignments["bob"].RatingAtFormation)
}

func TestSideEffectFailuresDoNotFailOperations(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	env.pubsub.SendMessageFunc = func(topic pubsub.EventType, data any) error {
		return errors.New("pubsub unavailable")
	}
	env.notifier.SendMatchConfirmedFunc = func(m *match.Match, changes []settlement.Change) error {
		return errors.New("slack unavailable")
	}

	m := env.fillQueue(t, "c1", "alice", "bob")
	env.vote(t, m.ID, "alice", match.ChoiceBlue)
	env.vote(t, m.ID, "bob", match.ChoiceBlue)

	_, err := env.svc.ConfirmMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, env.metrics.NotifFailed())

	view, err := env.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, view.Status)
}

func TestPlayers(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	row, err := env.svc.InitializePlayer(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1200, row.Rating)
	assert.Equal(t, 0, row.PlacementGames)

	again, err := env.svc.InitializePlayer(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, row, again)

	settings := store.DefaultGuildSettings()
	settings.InitialRating = 1000
	_, err = env.svc.UpdateGuildSettings(ctx, "g2", settings)
	require.NoError(t, err)
	other, err := env.svc.InitializePlayer(ctx, "g2", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1000, other.Rating)

	_, err = env.svc.InitializePlayer(ctx, "g1", "")
	assert.ErrorIs(t, err, match.ErrInvalidInput)

	require.NoError(t, env.svc.ResetPlayer(ctx, "g1", "alice"))
	assert.ErrorIs(t, env.svc.ResetPlayer(ctx, "g1", "alice"), match.ErrNotFound)
	_, err = env.svc.GetRating(ctx, "g1", "alice")
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestLeaderboard(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	board, err := env.svc.Leaderboard(ctx, "g1", 0)
	require.NoError(t, err)
	assert.Empty(t, board)

	ratings := map[string]int{}
	for i := range 12 {
		ratings[fmt.Sprintf("p%02d", i)] = 1000 + 10*i
	}
	env.seedRatings(t, ratings)

	board, err = env.svc.Leaderboard(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, board, DefaultLeaderboardSize)
	assert.Equal(t, "p11", board[0].PlayerID)
	assert.Equal(t, 1110, board[0].Rating)
	assert.Equal(t, "p02", board[9].PlayerID)

	board, err = env.svc.Leaderboard(ctx, "g1", 3)
	require.NoError(t, err)
	assert.Len(t, board, 3)

	board, err = env.svc.Leaderboard(ctx, "g1", 1000)
	require.NoError(t, err)
	assert.Len(t, board, DefaultLeaderboardSize)
}

func TestGuildSettings(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	got, err := env.svc.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, store.DefaultGuildSettings(), got)

	bad := store.DefaultGuildSettings()
	bad.TeamSize = 6
	_, err = env.svc.UpdateGuildSettings(ctx, "g1", bad)
	assert.ErrorIs(t, err, match.ErrInvalidInput)

	good := store.DefaultGuildSettings()
	good.KNormal = 20
	_, err = env.svc.UpdateGuildSettings(ctx, "g1", good)
	require.NoError(t, err)
	got, err = env.svc.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, good, got)
}
