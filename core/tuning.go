package core

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MiningStats summarizes measured mining cost at one difficulty level.
type MiningStats struct {
	Difficulty int
	Samples    int
	Mean       time.Duration
	StdDev     time.Duration
}

// MeasureMining runs n throwaway mining searches at the given difficulty
// and reports mean and standard deviation of their wall time. The sample
// payloads vary per run so each search starts from a different digest.
func MeasureMining(difficulty, n int) MiningStats {
	if difficulty <= 0 {
		difficulty = DefaultDifficulty
	}
	if n <= 0 {
		n = 1
	}
	prev := GenesisBlock().Hash
	durations := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		payload := AnonymousPayload(
			fmt.Sprintf("CALIBRATE-%d", i),
			"SYSTEM",
			UrgencyLow,
			Location{Area: "N/A", Address: "N/A", NearestStation: "N/A"},
			HashText(fmt.Sprintf("calibration sample %d", i)),
			[]Digest{},
			[]string{},
		)
		payload.Timestamp = genesisTimestamp + int64(i)
		start := time.Now()
		mineBlock(i+1, payload.Timestamp, payload, prev, difficulty)
		durations = append(durations, float64(time.Since(start)))
	}
	stats := MiningStats{
		Difficulty: difficulty,
		Samples:    n,
		Mean:       time.Duration(stat.Mean(durations, nil)),
	}
	if n > 1 {
		stats.StdDev = time.Duration(stat.StdDev(durations, nil))
	}
	return stats
}

// SuggestDifficulty measures increasing difficulty levels and returns the
// highest one whose mean mining time stays within budget. Operational
// tuning aid only; a ledger never changes its own difficulty.
func SuggestDifficulty(budget time.Duration, samplesPerLevel int) int {
	const maxProbe = 6
	best := 1
	for d := 1; d <= maxProbe; d++ {
		stats := MeasureMining(d, samplesPerLevel)
		if stats.Mean > budget {
			break
		}
		best = d
	}
	return best
}
