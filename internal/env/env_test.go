package env

import (
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridrl/internal/grid"
)

func smallConfig(p Policy) Config {
	cfg := DefaultConfig()
	cfg.GridSize = 4
	cfg.GridStep = 2
	cfg.Policy = p
	return cfg
}

// scenario builds an active Env with the agent and target at fixed cells.
func scenario(t *testing.T, cfg Config, agent, target grid.Position) *Env {
	t.Helper()
	e, err := New(cfg, 1)
	require.NoError(t, err)

	g, err := grid.New(cfg.GridSize, cfg.GridStep)
	require.NoError(t, err)
	g.Set(agent, grid.Agent)
	g.Set(target, grid.Target)
	shortest, err := grid.ShortestPathLength(g, agent, target)
	require.NoError(t, err)

	e.grid, e.agent, e.target = g, agent, target
	e.bounds = computeBounds(shortest, cfg)
	e.phase = PhaseActive
	return e
}

func TestResetPlacesAgentAndTarget(t *testing.T) {
	e, err := New(DefaultConfig(), 7)
	require.NoError(t, err)
	assert.Equal(t, PhaseFresh, e.Phase())

	for i := 0; i < 50; i++ {
		obs, info, err := e.Reset()
		require.NoError(t, err)
		assert.Equal(t, PhaseActive, e.Phase())
		assert.Zero(t, e.Timestep())
		assert.NotEqual(t, e.Agent(), e.Target())

		b := e.Bounds()
		assert.GreaterOrEqual(t, b.MinEpisodeLength, 1)
		assert.LessOrEqual(t, b.MinEpisodeLength, b.MaxEpisodeLength)
		assert.Less(t, b.MinEpisodeReward, b.MaxEpisodeReward)
		assert.Equal(t, b.Info(), info)

		c, ok := obs.CellAt(e.Agent())
		require.True(t, ok)
		assert.Equal(t, grid.Agent, c)
		c, ok = obs.CellAt(e.Target())
		require.True(t, ok)
		assert.Equal(t, grid.Target, c)
	}
}

func TestResetDeterministicPerSeed(t *testing.T) {
	a, err := New(DefaultConfig(), 123)
	require.NoError(t, err)
	b, err := New(DefaultConfig(), 123)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, _, err := a.Reset()
		require.NoError(t, err)
		_, _, err = b.Reset()
		require.NoError(t, err)
		assert.Equal(t, a.Agent(), b.Agent())
		assert.Equal(t, a.Target(), b.Target())
		assert.Equal(t, a.Bounds(), b.Bounds())
	}

	_, _, err = a.ResetSeed(99)
	require.NoError(t, err)
	agent, target := a.Agent(), a.Target()
	_, _, err = a.ResetSeed(99)
	require.NoError(t, err)
	assert.Equal(t, agent, a.Agent())
	assert.Equal(t, target, a.Target())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridSize = 0
	_, err := New(cfg, 0)
	assert.ErrorIs(t, err, grid.ErrInvalidGrid)

	cfg = DefaultConfig()
	cfg.Rewards.WinReward = -2
	_, err = New(cfg, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Rewards.StepPenalty = 0.5
	_, err = New(cfg, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Policy = Policy(9)
	_, err = New(cfg, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResetFailsOnSingleCellGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridSize = 1
	cfg.GridStep = 1
	e, err := New(cfg, 0)
	require.NoError(t, err)

	_, _, err = e.Reset()
	assert.ErrorIs(t, err, grid.ErrPlacement)
	assert.Equal(t, PhaseFresh, e.Phase())
}

func TestFailedResetClearsEpisode(t *testing.T) {
	e, err := New(DefaultConfig(), 4)
	require.NoError(t, err)
	_, _, err = e.Reset()
	require.NoError(t, err)
	_, err = e.Step(ActionUp)
	require.NoError(t, err)

	e.cfg.GridSize, e.cfg.GridStep = 1, 1
	_, _, err = e.Reset()
	require.ErrorIs(t, err, grid.ErrPlacement)

	assert.Equal(t, PhaseFresh, e.Phase())
	assert.Nil(t, e.Observation())
	assert.Nil(t, e.Snapshot())
	assert.Equal(t, Bounds{}, e.Bounds())
	assert.Zero(t, e.Timestep())
	assert.True(t, e.Blocked(ActionDown))
	_, err = e.Step(ActionDown)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestStepBeforeReset(t *testing.T) {
	e, err := New(DefaultConfig(), 0)
	require.NoError(t, err)
	_, err = e.Step(ActionUp)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestStepInvalidAction(t *testing.T) {
	e := scenario(t, smallConfig(PolicyStandard), grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 3})
	_, err := e.Step(Action(4))
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = e.Step(Action(-1))
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Zero(t, e.Timestep())
	assert.Equal(t, grid.Position{Row: 0, Col: 0}, e.Agent())
}

func TestStepAcceptedLeavesTrack(t *testing.T) {
	cfg := smallConfig(PolicyStandard)
	e := scenario(t, cfg, grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 3})

	res, err := e.Step(ActionRight)
	require.NoError(t, err)
	assert.Equal(t, cfg.Rewards.StepPenalty, res.Reward)
	assert.False(t, res.Done())
	assert.Equal(t, grid.Position{Row: 0, Col: 1}, e.Agent())

	snap := e.Snapshot()
	assert.Equal(t, grid.Track, snap.At(grid.Position{Row: 0, Col: 0}))
	assert.Equal(t, grid.Agent, snap.At(grid.Position{Row: 0, Col: 1}))
	assert.Equal(t, 1, snap.Count(grid.Agent))
	assert.Equal(t, 1.0, res.Info[InfoTimestep])

	// Moving back onto the track is a collision.
	res, err = e.Step(ActionLeft)
	require.NoError(t, err)
	assert.Equal(t, cfg.Rewards.CollisionPenalty, res.Reward)
	assert.Equal(t, grid.Position{Row: 0, Col: 1}, e.Agent())
	assert.Equal(t, 1, e.StuckSteps())
}

func TestStepReachesTarget(t *testing.T) {
	cfg := smallConfig(PolicyStandard)
	e := scenario(t, cfg, grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 2})

	_, err := e.Step(ActionRight)
	require.NoError(t, err)
	res, err := e.Step(ActionRight)
	require.NoError(t, err)

	assert.True(t, res.Terminated)
	assert.False(t, res.Truncated)
	assert.Equal(t, cfg.Rewards.WinReward, res.Reward)
	assert.Equal(t, PhaseTerminated, e.Phase())
	assert.Equal(t, OutcomeGoal, e.Outcome())
	assert.InDelta(t, e.Bounds().MaxEpisodeReward, e.EpisodeReward(), 1e-12)

	_, err = e.Step(ActionDown)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestStandardPolicyPenalties(t *testing.T) {
	cfg := smallConfig(PolicyStandard)
	e := scenario(t, cfg, grid.Position{Row: 0, Col: 1}, grid.Position{Row: 2, Col: 0})

	res, err := e.Step(ActionUp)
	require.NoError(t, err)
	assert.Equal(t, cfg.Rewards.BoundsPenalty, res.Reward)
	assert.False(t, res.Done())

	res, err = e.Step(ActionDown)
	require.NoError(t, err)
	assert.Equal(t, cfg.Rewards.CollisionPenalty, res.Reward)
	assert.False(t, res.Done())
	assert.Equal(t, 2, e.StuckSteps())

	_, err = e.Step(ActionRight)
	require.NoError(t, err)
	assert.Zero(t, e.StuckSteps())
}

func TestStandardPolicyTruncatesWhenBoxedIn(t *testing.T) {
	cfg := smallConfig(PolicyStandard)
	e := scenario(t, cfg, grid.Position{Row: 0, Col: 1}, grid.Position{Row: 2, Col: 0})
	e.grid.Set(grid.Position{Row: 0, Col: 0}, grid.Track)
	e.grid.Set(grid.Position{Row: 0, Col: 2}, grid.Track)

	res, err := e.Step(ActionUp)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.False(t, res.Terminated)
	assert.Equal(t, cfg.Rewards.LossPenalty, res.Reward)
	assert.Equal(t, OutcomeStuck, e.Outcome())
	assert.Equal(t, PhaseTruncated, e.Phase())
}

func TestSimplePolicyStuckLimit(t *testing.T) {
	cfg := smallConfig(PolicySimple)
	cfg.MaxStuckSteps = 3
	e := scenario(t, cfg, grid.Position{Row: 0, Col: 1}, grid.Position{Row: 2, Col: 0})
	e.grid.Set(grid.Position{Row: 0, Col: 0}, grid.Track)
	e.grid.Set(grid.Position{Row: 0, Col: 2}, grid.Track)

	for i := 0; i < 2; i++ {
		res, err := e.Step(ActionUp)
		require.NoError(t, err)
		assert.Equal(t, cfg.Rewards.CollisionPenalty, res.Reward, "out of bounds costs a collision")
		assert.False(t, res.Done())
	}
	res, err := e.Step(ActionUp)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, cfg.Rewards.LossPenalty, res.Reward)
	assert.Equal(t, OutcomeStuckLimit, e.Outcome())
}

func TestTimeout(t *testing.T) {
	for _, p := range []Policy{PolicyStandard, PolicySimple} {
		t.Run(p.String(), func(t *testing.T) {
			cfg := smallConfig(p)
			cfg.MaxEpisodeLength = 2
			cfg.MaxStuckSteps = 0
			e := scenario(t, cfg, grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 2})
			require.Equal(t, 2, e.Bounds().MaxEpisodeLength)

			res, err := e.Step(ActionDown)
			require.NoError(t, err)
			assert.False(t, res.Done())

			res, err = e.Step(ActionDown)
			require.NoError(t, err)
			assert.True(t, res.Truncated)
			assert.Equal(t, cfg.Rewards.LossPenalty, res.Reward)
			assert.Equal(t, OutcomeTimeout, e.Outcome())
		})
	}
}

func TestGoalOnLastAllowedStep(t *testing.T) {
	cfg := smallConfig(PolicyStandard)
	cfg.MaxEpisodeLength = 2
	e := scenario(t, cfg, grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 2})

	_, err := e.Step(ActionRight)
	require.NoError(t, err)
	res, err := e.Step(ActionRight)
	require.NoError(t, err)
	assert.True(t, res.Terminated)
	assert.False(t, res.Truncated)
}

func TestBoundsFixedWithinEpisode(t *testing.T) {
	e, err := New(DefaultConfig(), 21)
	require.NoError(t, err)
	_, info, err := e.Reset()
	require.NoError(t, err)
	b := e.Bounds()

	rng := rand.New(rand.NewSource(21))
	for !e.Done() {
		res, err := e.Step(Action(rng.Intn(NumActions)))
		require.NoError(t, err)
		assert.Equal(t, b, e.Bounds())
		assert.Equal(t, info[InfoMaxEpisodeReward], res.Info[InfoMaxEpisodeReward])
	}
	assert.Equal(t, info, e.Info())
}

func TestBounds(t *testing.T) {
	cfg := DefaultConfig()
	b := computeBounds(4, cfg)
	assert.Equal(t, 4, b.MinEpisodeLength)
	assert.Equal(t, 64, b.MaxEpisodeLength)
	assert.InDelta(t, 0.997, b.MaxEpisodeReward, 1e-9)
	assert.InDelta(t, -7.3, b.MinEpisodeReward, 1e-9)

	cfg.MaxEpisodeLength = 1
	b = computeBounds(3, cfg)
	assert.Equal(t, 3, b.MaxEpisodeLength, "cap is raised to the shortest path")

	for n, want := range map[int]int{4: 8, 9: 27, 10: 31, 16: 64} {
		assert.Equal(t, want, DefaultMaxEpisodeLength(n), "n=%d", n)
	}
}

func TestEpisodesStayWithinBounds(t *testing.T) {
	for _, p := range []Policy{PolicyStandard, PolicySimple} {
		cfg := DefaultConfig()
		cfg.Policy = p
		e, err := New(cfg, 5)
		require.NoError(t, err)
		rng := rand.New(rand.NewSource(5))

		for ep := 0; ep < 30; ep++ {
			_, _, err := e.Reset()
			require.NoError(t, err)
			b := e.Bounds()
			for !e.Done() {
				_, err := e.Step(Action(rng.Intn(NumActions)))
				require.NoError(t, err)
				require.LessOrEqual(t, e.Timestep(), b.MaxEpisodeLength)
			}
			assert.GreaterOrEqual(t, e.EpisodeReward(), b.MinEpisodeReward-1e-9)
			assert.LessOrEqual(t, e.EpisodeReward(), b.MaxEpisodeReward+1e-9)
			assert.NotEqual(t, OutcomeNone, e.Outcome())
		}
	}
}

func TestObservation(t *testing.T) {
	e := scenario(t, smallConfig(PolicyStandard), grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 3})
	obs := e.Observation()
	assert.Equal(t, [3]int{4, 4, 1}, obs.Shape())
	assert.Equal(t, grid.Obstacle.Intensity(), obs.At(1, 1))
	assert.Equal(t, grid.Path.Intensity(), obs.At(2, 2))

	c, ok := obs.CellAt(grid.Position{Row: 0, Col: 3})
	require.True(t, ok)
	assert.Equal(t, grid.Target, c)

	fresh, err := New(DefaultConfig(), 0)
	require.NoError(t, err)
	assert.Nil(t, fresh.Observation())
}

func TestPolicyDecide(t *testing.T) {
	r := DefaultRewards()
	for _, tc := range []struct {
		name   string
		policy Policy
		tr     Transition
		want   Decision
	}{
		{"step", PolicyStandard, Transition{Move: MoveAccepted, Timestep: 1, MaxLength: 10}, Decision{Reward: r.StepPenalty}},
		{"bounds", PolicyStandard, Transition{Move: MoveOutOfBounds, Timestep: 1, MaxLength: 10}, Decision{Reward: r.BoundsPenalty}},
		{"simple bounds", PolicySimple, Transition{Move: MoveOutOfBounds, Timestep: 1, MaxLength: 10}, Decision{Reward: r.CollisionPenalty}},
		{"blocked", PolicyStandard, Transition{Move: MoveBlocked, Timestep: 1, MaxLength: 10}, Decision{Reward: r.CollisionPenalty}},
		{"goal", PolicySimple, Transition{Move: MoveAccepted, ReachedTarget: true, Timestep: 10, MaxLength: 10}, Decision{Reward: r.WinReward, Terminated: true, Outcome: OutcomeGoal}},
		{"stuck", PolicyStandard, Transition{Move: MoveBlocked, Stuck: true, Timestep: 1, MaxLength: 10}, Decision{Reward: r.LossPenalty, Truncated: true, Outcome: OutcomeStuck}},
		{"simple ignores stuck", PolicySimple, Transition{Move: MoveBlocked, Stuck: true, Timestep: 1, MaxLength: 10}, Decision{Reward: r.CollisionPenalty}},
		{"stuck limit", PolicySimple, Transition{Move: MoveBlocked, StuckSteps: 5, MaxStuckSteps: 5, Timestep: 5, MaxLength: 10}, Decision{Reward: r.LossPenalty, Truncated: true, Outcome: OutcomeStuckLimit}},
		{"stuck limit disabled", PolicySimple, Transition{Move: MoveBlocked, StuckSteps: 50, Timestep: 5, MaxLength: 100}, Decision{Reward: r.CollisionPenalty}},
		{"timeout", PolicyStandard, Transition{Move: MoveAccepted, Timestep: 10, MaxLength: 10}, Decision{Reward: r.LossPenalty, Truncated: true, Outcome: OutcomeTimeout}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.policy.Decide(r, tc.tr))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("simple")
	require.NoError(t, err)
	assert.Equal(t, PolicySimple, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStandard, p)

	_, err = ParsePolicy("legacy")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFeatures(t *testing.T) {
	e := scenario(t, smallConfig(PolicyStandard), grid.Position{Row: 0, Col: 0}, grid.Position{Row: 0, Col: 3})
	f := NewFeatureExtractor().Extract(e)
	require.Len(t, f, FeatureDim)
	assert.Equal(t, []float32{1, 0, 1, 0}, f[:4])
	assert.Equal(t, float32(0), f[4])
	assert.Equal(t, float32(0.75), f[5])
	assert.Equal(t, float32(0.375), f[6])
	assert.Equal(t, float32(0), f[7])
}

func TestReplayRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	const seed = 42
	e, err := New(cfg, seed)
	require.NoError(t, err)
	_, _, err = e.Reset()
	require.NoError(t, err)

	rec := NewReplay(seed, cfg)
	rng := rand.New(rand.NewSource(3))
	for !e.Done() {
		a := Action(rng.Intn(NumActions))
		rec.Record(a)
		_, err := e.Step(a)
		require.NoError(t, err)
	}
	rec.SetFinalStats(e.Stats(seed))

	path := filepath.Join(t.TempDir(), "replays", "ep.json")
	require.NoError(t, rec.Save(path))
	loaded, err := LoadReplay(path)
	require.NoError(t, err)
	assert.Equal(t, rec.Actions, loaded.Actions)
	assert.NotEqual(t, OutcomeNone, loaded.FinalStats.Outcome)

	pe, err := loaded.Playback()
	require.NoError(t, err)
	require.NoError(t, loaded.PlaybackStep(pe, 0, len(loaded.Actions)))
	assert.Equal(t, e.Agent(), pe.Agent())
	assert.Equal(t, e.Timestep(), pe.Timestep())
	assert.Equal(t, e.Outcome(), pe.Outcome())
	assert.InDelta(t, e.EpisodeReward(), pe.EpisodeReward(), 1e-12)
}

func TestEpisodeStatsJSON(t *testing.T) {
	data, err := json.Marshal(EpisodeStats{Outcome: OutcomeStuckLimit, Length: 3})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outcome":"stuck_limit"`)
	assert.Contains(t, string(data), `"length":3`)
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]EpisodeStats{
		{Reward: 1, Length: 2, Outcome: OutcomeGoal, NormalizedReward: 1, NormalizedLength: 0},
		{Reward: -1, Length: 4, Outcome: OutcomeTimeout, NormalizedReward: 0, NormalizedLength: 1},
	})
	assert.Equal(t, 2, agg.NumEpisodes)
	assert.InDelta(t, 0, agg.RewardMean, 1e-12)
	assert.InDelta(t, 1, agg.RewardStd, 1e-12)
	assert.InDelta(t, 3, agg.LengthMean, 1e-12)
	assert.InDelta(t, 0.5, agg.NormalizedRewardMean, 1e-12)
	assert.InDelta(t, 0.5, agg.NormalizedRewardStd, 1e-12)
	assert.Equal(t, 0.0, agg.NormalizedRewardMin)
	assert.Equal(t, 1.0, agg.NormalizedRewardMax)
	assert.InDelta(t, 0.5, agg.SuccessRate, 1e-12)
	assert.InDelta(t, 0.25, agg.RobustnessScore(0.5), 1e-12)
	assert.Equal(t, 1, agg.OutcomeCounts[OutcomeTimeout])

	empty := Aggregate(nil)
	assert.Zero(t, empty.NumEpisodes)
}

func BenchmarkStep(b *testing.B) {
	e, err := New(DefaultConfig(), 1)
	require.NoError(b, err)
	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if e.Phase() != PhaseActive {
			if _, _, err := e.Reset(); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := e.Step(Action(rng.Intn(NumActions))); err != nil {
			b.Fatal(err)
		}
	}
}
