package nmw

// =============================================================================
// WORKER - Identity attributes relevant to rate resolution
// =============================================================================

type WorkerID string

// Worker holds the identity attributes the engine needs: either an explicit
// age or a date of birth (age is derived against the reference date), plus
// the apprenticeship facts. Immutable per calculation call.
type Worker struct {
	ID                  WorkerID `json:"id" validate:"required"`
	Age                 *int     `json:"age,omitempty"`
	DateOfBirth         *Date    `json:"date_of_birth,omitempty"`
	Apprentice          bool     `json:"apprentice,omitempty"`
	ApprenticeshipStart *Date    `json:"apprenticeship_start,omitempty"`
}

// AgeAt resolves the worker's age at the reference date. The explicit age
// field wins; otherwise age is derived from date of birth. The second return
// is false when neither attribute is present.
func (w Worker) AgeAt(ref Date) (int, bool) {
	if w.Age != nil {
		return *w.Age, true
	}
	if w.DateOfBirth != nil && !w.DateOfBirth.IsZero() {
		return AgeAt(*w.DateOfBirth, ref), true
	}
	return 0, false
}
