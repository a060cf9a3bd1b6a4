package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntheticPrefix marks locally fabricated monitor ids.
// Provider ids are always positive integers, so a prefixed id can never collide with one.
const SyntheticPrefix = "demo-"

// MonitorRef identifies a monitor selected on a status page.
//
// It is either a provider-issued monitor (Real) or a locally fabricated demo
// monitor (Synthetic). The zero value is not a valid reference.
type MonitorRef struct {
	id        int64
	synthetic bool
}

// RealRef returns a reference to a provider-issued monitor.
func RealRef(id int64) MonitorRef {
	return MonitorRef{id: id}
}

// SyntheticRef returns a reference to a demo monitor.
func SyntheticRef(id int64) MonitorRef {
	return MonitorRef{id: id, synthetic: true}
}

// ID returns the numeric part of the reference.
func (r MonitorRef) ID() int64 { return r.id }

// IsSynthetic reports whether the reference points to a demo monitor.
func (r MonitorRef) IsSynthetic() bool { return r.synthetic }

// IsReal reports whether the reference points to a provider monitor.
func (r MonitorRef) IsReal() bool { return !r.synthetic && r.id > 0 }

// IsZero reports whether the reference is unset.
func (r MonitorRef) IsZero() bool { return r.id == 0 }

func (r MonitorRef) String() string {
	if r.synthetic {
		return SyntheticPrefix + strconv.FormatInt(r.id, 10)
	}
	return strconv.FormatInt(r.id, 10)
}

// ParseMonitorRef parses the string form of a reference.
// Legacy negative ids ("-3") are read as synthetic references.
func ParseMonitorRef(s string) (MonitorRef, error) {
	s = strings.TrimSpace(s)
	synthetic := false
	switch {
	case strings.HasPrefix(s, SyntheticPrefix):
		s = strings.TrimPrefix(s, SyntheticPrefix)
		synthetic = true
	case strings.HasPrefix(s, "-"):
		s = strings.TrimPrefix(s, "-")
		synthetic = true
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return MonitorRef{}, fmt.Errorf("%w: %q", ErrInvalidMonitorRef, s)
	}
	return MonitorRef{id: id, synthetic: synthetic}, nil
}

// MarshalText lets references be used as JSON values and map keys.
func (r MonitorRef) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, fmt.Errorf("%w: zero reference", ErrInvalidMonitorRef)
	}
	return []byte(r.String()), nil
}

func (r *MonitorRef) UnmarshalText(text []byte) error {
	ref, err := ParseMonitorRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// ContainsRef reports whether refs contains ref.
func ContainsRef(refs []MonitorRef, ref MonitorRef) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

// UniqueRefs drops duplicates and zero references, keeping first-seen order.
func UniqueRefs(refs []MonitorRef) []MonitorRef {
	seen := make(map[MonitorRef]struct{}, len(refs))
	out := make([]MonitorRef, 0, len(refs))
	for _, r := range refs {
		if r.IsZero() {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// RealRefs returns the provider references of refs, in order.
func RealRefs(refs []MonitorRef) []MonitorRef {
	out := make([]MonitorRef, 0, len(refs))
	for _, r := range refs {
		if r.IsReal() {
			out = append(out, r)
		}
	}
	return out
}

// EqualRefs reports whether a and b hold the same references in the same order.
func EqualRefs(a, b []MonitorRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
