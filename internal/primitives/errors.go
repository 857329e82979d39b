package primitives

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrStopped is returned by Send once the machine reached a terminal state or failed.
var ErrStopped = errors.New("machine stopped")

// ConfigError indicates the raw definition could not be normalized.
type ConfigError struct {
	Path   string
	Reason string
	// Cause is the underlying error, if any.
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func NewConfigError(path, reason string) *ConfigError {
	return &ConfigError{Path: path, Reason: reason}
}

// WrapConfigError reports cause as a ConfigError at path.
func WrapConfigError(path string, cause error) *ConfigError {
	return &ConfigError{Path: path, Reason: cause.Error(), Cause: cause}
}

// UnknownStateError indicates a state name that is not declared in the table.
type UnknownStateError struct {
	StateName string
	// Referrer describes where the name was used, e.g. `transition "go" of state "idle"`.
	Referrer string
}

func (e *UnknownStateError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("unknown state '%s'", e.StateName)
	}
	return fmt.Sprintf("unknown state '%s' referenced by %s", e.StateName, e.Referrer)
}

func NewUnknownStateError(stateName, referrer string) *UnknownStateError {
	return &UnknownStateError{StateName: stateName, Referrer: referrer}
}

// ActionNotFoundError indicates an action name or type without a registered handler.
type ActionNotFoundError struct {
	Name      string
	StateName string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("action '%s' not registered (state '%s')", e.Name, e.StateName)
}

func NewActionNotFoundError(name, stateName string) *ActionNotFoundError {
	return &ActionNotFoundError{Name: name, StateName: stateName}
}

// InvalidActionError indicates an action entry that is neither a name nor a descriptor.
type InvalidActionError struct {
	Raw       any
	StateName string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action entry %v (%T) in state '%s'", e.Raw, e.Raw, e.StateName)
}

func NewInvalidActionError(raw any, stateName string) *InvalidActionError {
	return &InvalidActionError{Raw: raw, StateName: stateName}
}

// ActionFailedError wraps an error returned (or a panic raised) by a handler.
type ActionFailedError struct {
	Name      string
	StateName string
	Err       error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action '%s' failed in state '%s': %v", e.Name, e.StateName, e.Err)
}

func (e *ActionFailedError) Unwrap() error {
	return e.Err
}

func NewActionFailedError(name, stateName string, err error) *ActionFailedError {
	return &ActionFailedError{Name: name, StateName: stateName, Err: err}
}

func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

func IsUnknownStateError(err error) bool {
	var e *UnknownStateError
	return errors.As(err, &e)
}

func IsActionNotFoundError(err error) bool {
	var e *ActionNotFoundError
	return errors.As(err, &e)
}

func IsInvalidActionError(err error) bool {
	var e *InvalidActionError
	return errors.As(err, &e)
}

func IsActionFailedError(err error) bool {
	var e *ActionFailedError
	return errors.As(err, &e)
}
