package domain

// IntakeEvent marks the arrival of one candidate file in the watch directory.
// It is owned by a single pipeline run and never retained afterwards.
type IntakeEvent struct {
	Path string
}

// PreparedImage is the picture shown to the vision model. Temporary is true
// when ImagePath points at a rasterized PDF page owned by the pipeline run;
// for plain images it aliases the original file and is never deleted.
type PreparedImage struct {
	ImagePath string
	Temporary bool
}

// RenameResult records where a file ended up after a successful run.
type RenameResult struct {
	NewPath string
}

// Stage enumerates intake pipeline milestones. A run moves strictly forward;
// no stage is revisited and there are no retries across stages.
type Stage string

const (
	StageDetected    Stage = "detected"
	StageStabilizing Stage = "stabilizing"
	StagePreparing   Stage = "preparing"
	StageQuerying    Stage = "querying"
	StageSanitizing  Stage = "sanitizing"
	StageRenaming    Stage = "renaming"
	StageDone        Stage = "done"
	StageAborted     Stage = "aborted"
)
