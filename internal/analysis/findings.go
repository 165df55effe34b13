package analysis

// Findings aggregates analyzer output for report assembly.
type Findings struct {
	Pair      *CorrelatedPair
	Anomalies *AnomalySet
}

// AnomalyColumn returns the analyzed column, or "" when detection did not run.
func (f Findings) AnomalyColumn() string {
	if f.Anomalies == nil {
		return ""
	}
	return f.Anomalies.Column
}
