package pagex

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Action is the verb carried in a callback payload.
type Action string

const (
	// ActionOpen shows a page picked from a result list.
	ActionOpen Action = "page"
	// ActionNext steps forward from the carried page.
	ActionNext Action = "next"
	// ActionPrev steps backward from the carried page.
	ActionPrev Action = "prev"
)

const callbackSeparator = "|"

// Callback is the navigation state a UI hands back to the engine. The engine
// keeps no session; the caller round-trips the current page identifier here.
type Callback struct {
	Action Action
	ID     string
}

// OpenCallback returns the payload for opening id.
func OpenCallback(id string) Callback {
	return Callback{Action: ActionOpen, ID: id}
}

// NavCallback returns the payload for stepping from id in direction dir.
func NavCallback(id string, dir Direction) Callback {
	if dir == Backward {
		return Callback{Action: ActionPrev, ID: id}
	}
	return Callback{Action: ActionNext, ID: id}
}

// String encodes the callback as "<action>|<id>".
func (c Callback) String() string {
	return string(c.Action) + callbackSeparator + c.ID
}

// Direction returns the navigation direction of the callback. The boolean is
// false for ActionOpen.
func (c Callback) Direction() (Direction, bool) {
	switch c.Action {
	case ActionNext:
		return Forward, true
	case ActionPrev:
		return Backward, true
	default:
		return 0, false
	}
}

// ParseCallback decodes a payload produced by Callback.String. Identifiers
// may themselves contain the separator; only the first one splits.
func ParseCallback(s string) (Callback, error) {
	action, id, ok := strings.Cut(s, callbackSeparator)
	if !ok {
		return Callback{}, errors.Wrapf(ErrInvalidCallback, "missing separator in %q", s)
	}
	if id == "" {
		return Callback{}, errors.Wrapf(ErrInvalidCallback, "missing page identifier in %q", s)
	}
	switch a := Action(action); a {
	case ActionOpen, ActionNext, ActionPrev:
		return Callback{Action: a, ID: id}, nil
	default:
		return Callback{}, errors.Wrapf(ErrInvalidCallback, "unknown action %q", action)
	}
}
