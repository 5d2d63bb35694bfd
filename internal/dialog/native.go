package dialog

import (
	"errors"

	sqdialog "github.com/sqweek/dialog"
)

// defaultFileName seeds the dialog's filename field for never-saved notes.
const defaultFileName = "Untitled"

type nativePicker struct{}

// Native returns a Picker backed by the operating system's save dialog,
// offering plaintext and Markdown filters.
func Native() Picker {
	return nativePicker{}
}

func (nativePicker) PickSavePath() (string, error) {
	path, err := sqdialog.File().
		Title("Save note").
		Filter("Plaintext", "txt").
		Filter("Markdown", "md").
		SetStartFile(defaultFileName).
		Save()
	if err != nil {
		if errors.Is(err, sqdialog.ErrCancelled) {
			return "", ErrCancelled
		}
		return "", err
	}
	return path, nil
}
