package reaction

import "errors"

var (
	ErrSelfLike         = errors.New("cannot like your own transfer")
	ErrTransferNotFound = errors.New("transfer not found")
)

// ToggleResult reports the state after a toggle, with a fresh count read
// back from the store so concurrent toggles converge on the true total.
type ToggleResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}
