package scans

// Stage is a named, ordered step of the analysis pipeline. Stages are data:
// the pipeline advances through them on a timer for progress reporting while
// the engine does the actual work.
type Stage struct {
	Name    string `json:"name"`
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
}

// Pipeline is the fixed stage list. The labels are the exact strings the UI
// shows while a scan is in flight.
var Pipeline = []Stage{
	{Name: "dispatch", Ordinal: 0, Label: "Sending to analysis server..."},
	{Name: "cross-reference", Ordinal: 1, Label: "Cross-referencing fraud database..."},
	{Name: "pattern analysis", Ordinal: 2, Label: "Running AI pattern analysis..."},
	{Name: "report generation", Ordinal: 3, Label: "Generating risk report..."},
}

// FinalStageIndex is the ordinal of the last pipeline stage. A run may not
// succeed before its stage pointer reaches it.
func FinalStageIndex() int {
	return len(Pipeline) - 1
}

// StageAt returns the stage at index i, clamped to the pipeline bounds.
func StageAt(i int) Stage {
	if i < 0 {
		i = 0
	}
	if i > FinalStageIndex() {
		i = FinalStageIndex()
	}
	return Pipeline[i]
}
