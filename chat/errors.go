package chat

import (
	"errors"
	"fmt"
)

// ErrMissingFinishReason reports a stream that ended without the provider
// ever signaling why generation stopped.
var ErrMissingFinishReason = errors.New("chat: stream ended without a finish reason")

// CapabilityError reports a request requiring a feature the resolved model
// does not support. It is raised before any transport call.
type CapabilityError struct {
	Model      string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("chat: model %q does not support %s", e.Model, e.Capability)
}

// InvalidNameError reports a caller-supplied tool name or message source that
// fails the strict name pattern. Caller configuration must be exactly valid;
// only provider-returned names are normalized leniently.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("chat: invalid name %q: must match %s", e.Name, NamePattern)
}

// UnknownModelError reports a model absent from the provider registry when no
// explicit ModelInfo override was supplied. It is raised at client
// construction, not at call time.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("chat: unknown model %q and no model info override supplied", e.Model)
}

// UnsupportedResponseError reports a provider response shape this layer does
// not translate, such as the deprecated singular function-call protocol.
type UnsupportedResponseError struct {
	Reason string
}

func (e *UnsupportedResponseError) Error() string {
	return fmt.Sprintf("chat: unsupported provider response: %s", e.Reason)
}

// EmptyChunkExceededError reports more consecutive empty stream chunks than
// the configured tolerance allows.
type EmptyChunkExceededError struct {
	Count     int
	Tolerance int
}

func (e *EmptyChunkExceededError) Error() string {
	return fmt.Sprintf("chat: %d consecutive empty stream chunks exceeds tolerance %d", e.Count, e.Tolerance)
}
