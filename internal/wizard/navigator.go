// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package wizard

// Navigator controls which section of the wizard is active and which are
// completed. Forward movement is validation-gated; backward movement and
// jumps to completed sections are not. Completion is monotonic within one
// wizard run: revisiting a completed section and leaving it invalid does not
// un-mark it, only the terminal submit re-checks the whole draft.
type Navigator struct {
	draft     *Draft
	current   Section
	completed map[Section]bool
}

// NewNavigator returns a navigator positioned on the first section.
func NewNavigator(d *Draft) *Navigator {
	return &Navigator{
		draft:     d,
		current:   SectionBasicInfo,
		completed: make(map[Section]bool),
	}
}

// Current returns the active section.
func (n *Navigator) Current() Section {
	return n.current
}

// IsCompleted reports whether a section has been completed this run.
func (n *Navigator) IsCompleted(s Section) bool {
	return n.completed[s]
}

// Completed returns the completed sections in wizard order.
func (n *Navigator) Completed() []Section {
	var out []Section
	for _, s := range Sections() {
		if n.completed[s] {
			out = append(out, s)
		}
	}
	return out
}

// Next validates the active section only. On success it marks the section
// completed and advances; on failure it returns the field errors and leaves
// all state unchanged. No-op on the last section.
func (n *Navigator) Next() []FieldError {
	idx := sectionIndex(n.current)
	if idx >= len(Sections())-1 {
		return nil
	}
	if errs := ValidateSection(n.draft, n.current); len(errs) > 0 {
		return errs
	}
	n.completed[n.current] = true
	n.current = Sections()[idx+1]
	return nil
}

// Previous moves to the prior section without validation. No-op on the
// first section.
func (n *Navigator) Previous() {
	if idx := sectionIndex(n.current); idx > 0 {
		n.current = Sections()[idx-1]
	}
}

// GoTo jumps to a section if it is the active one or already completed.
// Disallowed jumps leave the active section unchanged and return false.
func (n *Navigator) GoTo(s Section) bool {
	if s != n.current && !n.completed[s] {
		return false
	}
	n.current = s
	return true
}
