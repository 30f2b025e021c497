package env

// FeatureDim is the length of the vector FeatureExtractor produces.
const FeatureDim = 8

// FeatureExtractor builds a compact observation vector for simple agents:
//
//	[0:4] danger flags for up, down, left, right (move would be rejected)
//	[4:6] target row/col offset, normalized by grid size to [-1, 1]
//	[6]   Manhattan distance to the target, normalized to [0, 1]
//	[7]   consecutive rejected moves, normalized by the stuck cap
type FeatureExtractor struct {
	buffer []float32
}

// NewFeatureExtractor creates a feature extractor
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{buffer: make([]float32, FeatureDim)}
}

// Extract builds the feature vector for the current state.
// Returns a slice that should not be modified (internal buffer)
func (f *FeatureExtractor) Extract(e *Env) []float32 {
	for a := ActionUp; a <= ActionRight; a++ {
		f.buffer[a] = boolToFloat(e.Blocked(a))
	}

	size := float32(e.cfg.GridSize)
	dr := e.target.Row - e.agent.Row
	dc := e.target.Col - e.agent.Col
	f.buffer[4] = float32(dr) / size
	f.buffer[5] = float32(dc) / size
	f.buffer[6] = float32(absInt(dr)+absInt(dc)) / (2 * size)

	f.buffer[7] = 0
	if e.cfg.MaxStuckSteps > 0 {
		f.buffer[7] = float32(e.stuckSteps) / float32(e.cfg.MaxStuckSteps)
	}
	return f.buffer
}

func boolToFloat(b bool) float32 {
	if b {
		return 1.0
	}
	return 0.0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
