package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"gridrl/internal/env"
)

// Logger handles all evaluation output: one CSV row and one JSON line per
// episode, plus a JSON summary line per run. Every record carries the run ID.
type Logger struct {
	runID       string
	csvPath     string
	jsonPath    string
	mu          sync.Mutex
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	initialized bool
}

// NewLogger creates a new logger with a fresh run ID
func NewLogger(csvPath, jsonPath string) (*Logger, error) {
	l := &Logger{
		runID:    uuid.NewString(),
		csvPath:  csvPath,
		jsonPath: jsonPath,
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(csvPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0755); err != nil {
		return nil, err
	}

	return l, nil
}

// RunID returns the identifier written into every record.
func (l *Logger) RunID() string {
	return l.runID
}

var csvHeader = []string{
	"run_id", "agent", "seed", "outcome", "reward", "length",
	"normalized_reward", "normalized_length",
	"min_episode_length", "max_episode_length", "min_episode_reward", "max_episode_reward",
}

// Init initializes the log files
func (l *Logger) Init() error {
	var err error

	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return err
	}
	l.csvWriter = csv.NewWriter(l.csvFile)
	if err := l.csvWriter.Write(csvHeader); err != nil {
		l.csvFile.Close()
		l.csvFile, l.csvWriter = nil, nil
		return err
	}

	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		l.csvFile.Close()
		l.csvFile, l.csvWriter = nil, nil
		return err
	}

	l.initialized = true
	return nil
}

// Close flushes and closes all log files
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		firstErr = l.csvWriter.Error()
	}
	if l.csvFile != nil {
		if err := l.csvFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.jsonFile != nil {
		if err := l.jsonFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.initialized = false
	return firstErr
}

// EpisodeRecord is the JSON form of one evaluated episode
type EpisodeRecord struct {
	Kind             string      `json:"kind"`
	RunID            string      `json:"run_id"`
	Agent            string      `json:"agent"`
	Seed             int64       `json:"seed"`
	Outcome          env.Outcome `json:"outcome"`
	Reward           float64     `json:"reward"`
	Length           int         `json:"length"`
	NormalizedReward float64     `json:"normalized_reward"`
	NormalizedLength float64     `json:"normalized_length"`
	Bounds           env.Bounds  `json:"bounds"`
}

// SummaryRecord holds per-run statistics
type SummaryRecord struct {
	Kind                 string         `json:"kind"`
	RunID                string         `json:"run_id"`
	Agent                string         `json:"agent"`
	Episodes             int            `json:"episodes"`
	RewardMean           float64        `json:"reward_mean"`
	RewardStd            float64        `json:"reward_std"`
	LengthMean           float64        `json:"length_mean"`
	NormalizedRewardMean float64        `json:"normalized_reward_mean"`
	NormalizedRewardStd  float64        `json:"normalized_reward_std"`
	NormalizedRewardMin  float64        `json:"normalized_reward_min"`
	NormalizedRewardMax  float64        `json:"normalized_reward_max"`
	NormalizedLengthMean float64        `json:"normalized_length_mean"`
	SuccessRate          float64        `json:"success_rate"`
	RobustScore          float64        `json:"robust_score"`
	OutcomeCounts        map[string]int `json:"outcome_counts"`
}

// LogEpisode writes one episode to the CSV and JSON logs. Safe for
// concurrent use.
func (l *Logger) LogEpisode(agentName string, s env.EpisodeStats) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil
	}

	row := []string{
		l.runID,
		agentName,
		strconv.FormatInt(s.Seed, 10),
		s.Outcome.String(),
		fmt.Sprintf("%.4f", s.Reward),
		strconv.Itoa(s.Length),
		fmt.Sprintf("%.4f", s.NormalizedReward),
		fmt.Sprintf("%.4f", s.NormalizedLength),
		strconv.Itoa(s.Bounds.MinEpisodeLength),
		strconv.Itoa(s.Bounds.MaxEpisodeLength),
		fmt.Sprintf("%.4f", s.Bounds.MinEpisodeReward),
		fmt.Sprintf("%.4f", s.Bounds.MaxEpisodeReward),
	}
	if err := l.csvWriter.Write(row); err != nil {
		return err
	}
	l.csvWriter.Flush()

	return l.writeJSON(EpisodeRecord{
		Kind:             "episode",
		RunID:            l.runID,
		Agent:            agentName,
		Seed:             s.Seed,
		Outcome:          s.Outcome,
		Reward:           s.Reward,
		Length:           s.Length,
		NormalizedReward: s.NormalizedReward,
		NormalizedLength: s.NormalizedLength,
		Bounds:           s.Bounds,
	})
}

// LogSummary writes the run summary as a JSON line and prints it.
func (l *Logger) LogSummary(agentName string, agg env.AggregatedStats, lambda float64) error {
	summary := SummaryRecord{
		Kind:                 "summary",
		RunID:                l.runID,
		Agent:                agentName,
		Episodes:             agg.NumEpisodes,
		RewardMean:           agg.RewardMean,
		RewardStd:            agg.RewardStd,
		LengthMean:           agg.LengthMean,
		NormalizedRewardMean: agg.NormalizedRewardMean,
		NormalizedRewardStd:  agg.NormalizedRewardStd,
		NormalizedRewardMin:  agg.NormalizedRewardMin,
		NormalizedRewardMax:  agg.NormalizedRewardMax,
		NormalizedLengthMean: agg.NormalizedLengthMean,
		SuccessRate:          agg.SuccessRate,
		RobustScore:          agg.RobustnessScore(lambda),
		OutcomeCounts:        make(map[string]int),
	}
	for outcome, count := range agg.OutcomeCounts {
		summary.OutcomeCounts[outcome.String()] = count
	}

	log.Printf("[EVAL] [INFO] run=%s agent=%s episodes=%d success=%.1f%% reward=%.3f±%.3f norm=%.3f±%.3f [%.3f, %.3f] robust=%.3f",
		l.runID, agentName, summary.Episodes, 100*summary.SuccessRate,
		summary.RewardMean, summary.RewardStd,
		summary.NormalizedRewardMean, summary.NormalizedRewardStd,
		summary.NormalizedRewardMin, summary.NormalizedRewardMax,
		summary.RobustScore)
	log.Printf("[EVAL] [INFO] outcomes: goal=%d stuck=%d stuck_limit=%d timeout=%d",
		agg.OutcomeCounts[env.OutcomeGoal], agg.OutcomeCounts[env.OutcomeStuck],
		agg.OutcomeCounts[env.OutcomeStuckLimit], agg.OutcomeCounts[env.OutcomeTimeout])

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil
	}
	return l.writeJSON(summary)
}

func (l *Logger) writeJSON(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = l.jsonFile.Write(append(line, '\n'))
	return err
}
