package streaming

import (
	"context"

	"haulmon/internal/missions"
)

// Pipeline wires tailer, classifier and reconciler into the single-writer
// loop: one goroutine pulls lines and folds the resulting events into the
// store in order.
type Pipeline struct {
	tailer     *Tailer
	classifier *Classifier
	reconciler *Reconciler
}

// NewPipeline builds the processing chain for one log file.
func NewPipeline(logPath string, patterns *PatternSet, store *missions.Store) *Pipeline {
	p := &Pipeline{
		classifier: NewClassifier(patterns),
		reconciler: NewReconciler(store),
	}
	p.tailer = NewTailer(logPath, p.handleLine)
	return p
}

// Tailer exposes the tailer for tuning before Run.
func (p *Pipeline) Tailer() *Tailer {
	return p.tailer
}

func (p *Pipeline) handleLine(line string) {
	for _, ev := range p.classifier.Classify(line) {
		p.reconciler.Apply(ev)
	}
}

// Run blocks until ctx is cancelled or the tailer fails.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.tailer.Run(ctx)
}
