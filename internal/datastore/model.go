// model.go defines the run history tables
package datastore

import (
	"time"

	"github.com/google/uuid"
)

// Run modes.
const (
	ModeTrain   = "train"
	ModePredict = "predict"
)

// Run is one invocation of the training or prediction pipeline.
type Run struct {
	ID        uint      `gorm:"primaryKey"`
	UUID      string    `gorm:"uniqueIndex;size:36;not null"`
	Mode      string    `gorm:"size:16;index"`
	Input     string    // recording base path or data directory
	StartedAt time.Time `gorm:"index"`
	Duration  time.Duration

	Trials   int     // usable trials
	Skipped  int     // trials skipped during extraction
	Accuracy float64 // held-out accuracy, training runs only

	Label        float64 // majority vote, prediction runs only
	Votes        int
	Tied         bool
	SMSStatus    string `gorm:"size:16"`
	Undetermined bool

	Error string

	Predictions []TrialPrediction `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TrialPrediction is the decoded prediction of a single trial.
type TrialPrediction struct {
	ID     uint `gorm:"primaryKey"`
	RunID  uint `gorm:"index;not null"`
	Record string
	Trial  int
	Label  float64
}

// NewRun starts a run record with a fresh id.
func NewRun(mode, input string) *Run {
	return &Run{
		UUID:      uuid.NewString(),
		Mode:      mode,
		Input:     input,
		StartedAt: time.Now(),
	}
}

// Finish stamps the run duration and error, if any.
func (r *Run) Finish(err error) {
	r.Duration = time.Since(r.StartedAt)
	if err != nil {
		r.Error = err.Error()
	}
}
