package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ncruces/zenity"
)

var errSnapshotCanceled = errors.New("snapshot canceled")

// fatalf logs a fatal precondition failure, showing it in a native dialog
// first when -dialogs is set.
func fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if *dialogsFlag {
		if err := zenity.Error(msg, zenity.Title(windowTitle), zenity.ErrorIcon); err != nil {
			log.Printf("error dialog failed: %v", err)
		}
	}
	log.Fatal(msg)
}

// chooseSnapshotPath asks for a PNG destination when dialogs are enabled and
// otherwise derives a timestamped name from -out.
func chooseSnapshotPath(now time.Time) (string, error) {
	if !*dialogsFlag {
		return timestampedPath(*outFlag, now), nil
	}
	path, err := zenity.SelectFileSave(
		zenity.Title("Save snapshot"),
		zenity.Filename(snapshotFilename),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{{
			Name:     "PNG image",
			Patterns: []string{"*.png"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", errSnapshotCanceled
		}
		return "", err
	}
	return path, nil
}
