package ocr

import "errors"

// ErrInference wraps any failure raised while running a recognizer engine.
var ErrInference = errors.New("inference failed")

// ErrUnknownEngine is returned by New for an unsupported engine name.
var ErrUnknownEngine = errors.New("unknown ocr engine")
