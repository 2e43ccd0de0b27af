package pipeline

import "errors"

var (
	// ErrUnknownPhoto indicates the requested photo id is not in the store.
	ErrUnknownPhoto = errors.New("unknown photo")

	// ErrAlreadyAnimated indicates the photo already carries a video.
	ErrAlreadyAnimated = errors.New("photo already animated")

	// ErrAnimationInFlight indicates an animation for this photo is still
	// outstanding.
	ErrAnimationInFlight = errors.New("animation already in flight")
)
