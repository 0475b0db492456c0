// Package wizard holds the voting wizard's step navigation rules and the
// per-session draft ballot. The draft is an ephemeral shadow of a
// not-yet-committed vote; it is validated on every transition instead of
// trusting prior session state.
package wizard

import (
	"errors"
	"strconv"
	"strings"
)

// Nav is the navigation directive submitted with a wizard step.
type Nav string

const (
	NavPrev   Nav = "prev"
	NavNext   Nav = "next"
	NavFinish Nav = "finish"
)

// ErrBlankName 姓或名去空格后为空
var ErrBlankName = errors.New("voter first and last name must not be blank")

// Draft is the in-progress ballot held in the session:
// the voter's declared name plus category id -> chosen entry id.
type Draft struct {
	VoterFirst string
	VoterLast  string
	Ballot     map[uint]uint
}

// NewDraft 创建空的草稿
func NewDraft() *Draft {
	return &Draft{Ballot: make(map[uint]uint)}
}

// HasVoter reports whether both name parts are present after trimming.
func (d *Draft) HasVoter() bool {
	return strings.TrimSpace(d.VoterFirst) != "" && strings.TrimSpace(d.VoterLast) != ""
}

// SetVoter stores the trimmed voter name, rejecting blank parts.
func (d *Draft) SetVoter(first, last string) error {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" || last == "" {
		return ErrBlankName
	}
	d.VoterFirst = first
	d.VoterLast = last
	return nil
}

// Select records a choice for a category. The raw entry id comes straight
// from the form; unparsable input is silently ignored and the category keeps
// whatever selection it had (possibly none).
func (d *Draft) Select(categoryID uint, rawEntryID string) {
	rawEntryID = strings.TrimSpace(rawEntryID)
	if rawEntryID == "" {
		return
	}
	id, err := strconv.ParseUint(rawEntryID, 10, 32)
	if err != nil {
		return
	}
	if d.Ballot == nil {
		d.Ballot = make(map[uint]uint)
	}
	d.Ballot[categoryID] = uint(id)
}

// ValidStep reports whether idx addresses one of total category steps.
func ValidStep(idx, total int) bool {
	return idx >= 0 && idx < total
}

// Next computes the step transition for a navigation directive.
// next/prev clamp to [0, total-1] and never wrap; anything that is not
// prev or next finishes the wizard, regardless of the current step.
// An empty directive defaults to next.
func Next(nav Nav, idx, total int) (next int, finish bool) {
	switch nav {
	case NavPrev:
		if idx <= 0 {
			return 0, false
		}
		return idx - 1, false
	case NavNext, "":
		if idx+1 >= total {
			return total - 1, false
		}
		return idx + 1, false
	default:
		return idx, true
	}
}
