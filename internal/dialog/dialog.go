// Package dialog asks the user for a save path through the platform's
// native file dialog.
package dialog

import "errors"

// ErrCancelled is returned when the user dismisses the dialog without
// choosing a path. Cancelling is an expected outcome, not a failure.
var ErrCancelled = errors.New("dialog: cancelled")

// Picker chooses the note's save path. PickSavePath blocks the calling
// goroutine until the user picks a path or cancels.
type Picker interface {
	PickSavePath() (string, error)
}

// PickerFunc adapts a plain function to the Picker interface.
type PickerFunc func() (string, error)

// PickSavePath calls f.
func (f PickerFunc) PickSavePath() (string, error) {
	return f()
}
