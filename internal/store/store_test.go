package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/rift-ladder/internal/database"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/rating"
	"github.com/mauv0809/rift-ladder/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1750000000, 0)

// setupTestDB creates an in-memory database and a store over it.
func setupTestDB(t *testing.T) (Store, func()) {
	t.Helper()
	db, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	return New(db), func() { db.Close() }
}

func createMatch(t *testing.T, s Store, id string) *match.Match {
	t.Helper()
	m := &match.Match{
		ID:      id,
		GuildID: "g1",
		QueueID: "q1",
		Status:  match.StatusVoting,
		Assignments: match.Assignments{
			"alice": {Team: match.TeamBlue, Role: match.RoleMid, RatingAtFormation: 1300},
			"bob":   {Team: match.TeamRed, Role: match.RoleTop, RatingAtFormation: 1100},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateMatch(context.Background(), m))
	return m
}

func TestGuildSettings(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	defaults := DefaultGuildSettings()
	got, err := s.GetGuildSettings(ctx, "g1", defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	custom := defaults
	custom.KNormal = 24
	custom.TeamSize = 3
	require.NoError(t, s.SaveGuildSettings(ctx, "g1", custom, now))

	got, err = s.GetGuildSettings(ctx, "g1", defaults)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
	assert.Equal(t, 6, got.QueueCapacity())

	custom.InitialRating = 1000
	require.NoError(t, s.SaveGuildSettings(ctx, "g1", custom, now))
	got, err = s.GetGuildSettings(ctx, "g1", defaults)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.InitialRating)

	other, err := s.GetGuildSettings(ctx, "g2", defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, other)
}

func TestGuildSettings_Validate(t *testing.T) {
	valid := DefaultGuildSettings()
	assert.NoError(t, valid.Validate())

	tooBig := valid
	tooBig.TeamSize = 6
	assert.Error(t, tooBig.Validate())

	zero := valid
	zero.TeamSize = 0
	assert.Error(t, zero.Validate())

	badK := valid
	badK.KNormal = 0
	assert.Error(t, badK.Validate())
}

func TestRatings(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	settings := rating.DefaultSettings()

	_, err := s.GetRating(ctx, "g1", "alice")
	assert.ErrorIs(t, err, match.ErrNotFound)

	created, err := s.CreateRating(ctx, settings.NewPlayer("g1", "alice", now))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.CreateRating(ctx, rating.PlayerRating{GuildID: "g1", PlayerID: "alice", Rating: 5, UpdatedAt: now})
	require.NoError(t, err)
	assert.False(t, created, "existing rows are left alone")

	got, err := s.GetRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, settings.NewPlayer("g1", "alice", now), *got)

	_, err = s.GetRating(ctx, "g2", "alice")
	assert.ErrorIs(t, err, match.ErrNotFound, "ratings are per guild")

	updated := *got
	updated.Rating = 1232
	updated.Wins = 1
	updated.PlacementGames = 1
	updated.PeakRating = 1232
	bob := rating.PlayerRating{GuildID: "g1", PlayerID: "bob", Rating: 1168, Losses: 1, PlacementGames: 1, PeakRating: 1200, UpdatedAt: now}
	require.NoError(t, s.SaveRatings(ctx, []rating.PlayerRating{updated, bob}))

	rows, err := s.GetRatings(ctx, "g1", []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, updated, rows["alice"])
	assert.Equal(t, bob, rows["bob"])

	board, err := s.ListRatings(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Equal(t, []rating.PlayerRating{updated, bob}, board)
	board, err = s.ListRatings(ctx, "g1", 1)
	require.NoError(t, err)
	assert.Equal(t, []rating.PlayerRating{updated}, board)
	board, err = s.ListRatings(ctx, "g2", 10)
	require.NoError(t, err)
	assert.Empty(t, board)

	empty, err := s.GetRatings(ctx, "g1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	deleted, err := s.DeleteRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeleteRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestQueues(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	q := &Queue{ID: "q1", GuildID: "g1", ChannelID: "c1", Capacity: 4, Status: QueueOpen, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateQueue(ctx, q))

	dup := *q
	dup.ID = "q2"
	assert.ErrorIs(t, s.CreateQueue(ctx, &dup), ErrConflict)

	open, err := s.GetOpenQueue(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, q, open)

	_, err = s.GetOpenQueue(ctx, "g1", "c2")
	assert.ErrorIs(t, err, match.ErrNotFound)
	_, err = s.GetQueue(ctx, "missing")
	assert.ErrorIs(t, err, match.ErrNotFound)

	require.NoError(t, s.AddEntry(ctx, Entry{QueueID: "q1", PlayerID: "bob", MainRole: match.RoleTop, SubRole: match.RoleFill, JoinedAt: now}))
	require.NoError(t, s.AddEntry(ctx, Entry{QueueID: "q1", PlayerID: "alice", MainRole: match.RoleMid, SubRole: match.RoleADC, JoinedAt: now}))
	assert.ErrorIs(t, s.AddEntry(ctx, Entry{QueueID: "q1", PlayerID: "bob", JoinedAt: now}), ErrConflict)

	entries, err := s.ListEntries(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].PlayerID, "join order is kept")
	assert.Equal(t, match.RoleTop, entries[0].MainRole)
	assert.Equal(t, match.RoleADC, entries[1].SubRole)

	removed, err := s.RemoveEntry(ctx, "q1", "bob")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.RemoveEntry(ctx, "q1", "bob")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, s.ConsumeQueue(ctx, "q1", "m1", now))
	consumed, err := s.GetQueue(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, QueueConsumed, consumed.Status)
	assert.Equal(t, "m1", consumed.MatchID)

	entries, err = s.ListEntries(ctx, "q1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, s.ConsumeQueue(ctx, "q1", "m2", now), match.ErrInvalidState)

	// The channel can open a new queue once the old one is consumed.
	assert.NoError(t, s.CreateQueue(ctx, &dup))
}

func TestMatches_CreateAndGet(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	m := createMatch(t, s, "m1")
	got, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = s.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestMatches_RecordVote(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	m := createMatch(t, s, "m1")

	prev, err := s.GetVote(ctx, "m1", "alice")
	require.NoError(t, err)
	assert.Nil(t, prev)

	cast := func(player string, next match.Choice) match.Tally {
		t.Helper()
		prev, err := s.GetVote(ctx, "m1", player)
		require.NoError(t, err)
		change, err := match.PlanVote(m, player, prev, next)
		require.NoError(t, err)
		tally, err := s.RecordVote(ctx, match.Vote{MatchID: "m1", PlayerID: player, Choice: next, VotedAt: now}, change)
		require.NoError(t, err)
		return tally
	}

	assert.Equal(t, match.Tally{Blue: 1}, cast("alice", match.ChoiceBlue))
	assert.Equal(t, match.Tally{Blue: 1}, cast("alice", match.ChoiceBlue), "repeat vote is a no-op")
	assert.Equal(t, match.Tally{Blue: 1, Red: 1}, cast("bob", match.ChoiceRed))
	assert.Equal(t, match.Tally{Blue: 2}, cast("bob", match.ChoiceBlue))

	votes, err := s.ListVotes(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, votes, 2)
	for _, v := range votes {
		assert.Equal(t, match.ChoiceBlue, v.Choice)
	}

	winner := match.ChoiceBlue
	require.NoError(t, s.ResolveMatch(ctx, "m1", match.StatusConfirmed, &winner, now))

	_, err = s.RecordVote(ctx, match.Vote{MatchID: "m1", PlayerID: "bob", Choice: match.ChoiceRed, VotedAt: now},
		match.VoteChange{Changed: true, Previous: &winner, Next: match.ChoiceRed})
	assert.ErrorIs(t, err, match.ErrInvalidState)

	got, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.Tally{Blue: 2}, got.Tally, "tallies are frozen once resolved")
}

func TestMatches_Resolve(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	createMatch(t, s, "m1")
	createMatch(t, s, "m2")

	winner := match.ChoiceRed
	require.NoError(t, s.ResolveMatch(ctx, "m1", match.StatusConfirmed, &winner, now))
	assert.ErrorIs(t, s.ResolveMatch(ctx, "m1", match.StatusConfirmed, &winner, now), match.ErrInvalidState)
	assert.ErrorIs(t, s.ResolveMatch(ctx, "m1", match.StatusCancelled, nil, now), match.ErrInvalidState)
	assert.ErrorIs(t, s.ResolveMatch(ctx, "m2", match.StatusVoting, nil, now), match.ErrInvalidState)

	got, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, got.Status)
	require.NotNil(t, got.Winner)
	assert.Equal(t, match.ChoiceRed, *got.Winner)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, now, *got.ResolvedAt)

	require.NoError(t, s.ResolveMatch(ctx, "m2", match.StatusCancelled, nil, now))
	got, err = s.GetMatch(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, match.StatusCancelled, got.Status)
	assert.Nil(t, got.Winner)
}

func TestMatches_Participants(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	createMatch(t, s, "m1")

	changes := []settlement.Change{
		{PlayerID: "alice", Team: match.TeamBlue, Role: match.RoleMid, RatingBefore: 1300, RatingAfter: 1318, Change: 18},
		{PlayerID: "bob", Team: match.TeamRed, Role: match.RoleTop, RatingBefore: 1100, RatingAfter: 1082, Change: -18},
	}
	require.NoError(t, s.AddParticipants(ctx, "m1", changes))
	assert.Error(t, s.AddParticipants(ctx, "m1", changes[:1]), "participation rows are written once")

	got, err := s.ListParticipants(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, changes, got)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	createMatch(t, s, "m1")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(q Queries) error {
		winner := match.ChoiceBlue
		if err := q.ResolveMatch(ctx, "m1", match.StatusConfirmed, &winner, now); err != nil {
			return err
		}
		if err := q.SaveRatings(ctx, []rating.PlayerRating{{GuildID: "g1", PlayerID: "alice", Rating: 1332, PeakRating: 1332, UpdatedAt: now}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetMatch(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusVoting, got.Status, "match stays confirmable")
	_, err = s.GetRating(ctx, "g1", "alice")
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestInTx_Commits(t *testing.T) {
	s, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	err := s.InTx(ctx, func(q Queries) error {
		_, err := q.CreateRating(ctx, rating.DefaultSettings().NewPlayer("g1", "alice", now))
		return err
	})
	require.NoError(t, err)

	got, err := s.GetRating(ctx, "g1", "alice")
	require.NoError(t, err)
	assert.Equal(t, rating.DefaultInitialRating, got.Rating)
}
