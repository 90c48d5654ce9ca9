package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"maunium.net/go/mautrix/id"
)

// Validation errors.
var (
	ErrInvalidRange  = errors.New("invalid range")
	ErrRangeOrder    = errors.New("ranges must be ascending and non-overlapping")
	ErrTimelineLimit = errors.New("timeline limit must be positive")
)

// Range is an inclusive [Start, End] window over a server-ordered list.
//
// Encoded as a two-element array in both JSON and CBOR.
type Range struct {
	_     struct{} `cbor:",toarray"`
	Start int
	End   int
}

// NewRange returns the inclusive range [start, end].
func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

// Validate checks 0 <= Start <= End.
func (r Range) Validate() error {
	if r.Start < 0 || r.Start > r.End {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Start, r.End)
}

// MarshalJSON encodes the range as [start, end].
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a [start, end] array.
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// ValidateRanges checks every range and that the sequence is ascending and
// non-overlapping. An empty sequence is valid.
func ValidateRanges(ranges []Range) error {
	for i, r := range ranges {
		if err := r.Validate(); err != nil {
			return err
		}
		if i > 0 && r.Start <= ranges[i-1].End {
			return fmt.Errorf("%w: %s after %s", ErrRangeOrder, r, ranges[i-1])
		}
	}
	return nil
}

// StateKey is an (event type, state key) pair in required state.
//
// Encoded as a two-element array in both JSON and CBOR.
type StateKey struct {
	_         struct{} `cbor:",toarray"`
	EventType string
	StateKey  string
}

// NewStateKey returns the (eventType, stateKey) pair.
func NewStateKey(eventType, stateKey string) StateKey {
	return StateKey{EventType: eventType, StateKey: stateKey}
}

// MarshalJSON encodes the pair as [event_type, state_key].
func (k StateKey) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{k.EventType, k.StateKey})
}

// UnmarshalJSON decodes an [event_type, state_key] array.
func (k *StateKey) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	k.EventType, k.StateKey = pair[0], pair[1]
	return nil
}

// Filters narrows list membership. Keys and values are passed to the server
// untouched (is_dm, spaces, room_name_like, tags, ...).
type Filters map[string]any

// ListSpec is the request for one sliding window list.
//
// CBOR encoding:
//
//	{
//	  1: ranges,          // [[start, end], ...]
//	  2: sort,            // [key, ...]
//	  3: required_state,  // [[type, state_key], ...]
//	  4: timeline_limit,  // uint
//	  5: filters          // map
//	}
type ListSpec struct {
	Ranges        []Range    `json:"ranges" cbor:"1,keyasint"`
	Sort          []string   `json:"sort,omitempty" cbor:"2,keyasint,omitempty"`
	RequiredState []StateKey `json:"required_state,omitempty" cbor:"3,keyasint,omitempty"`
	TimelineLimit int        `json:"timeline_limit" cbor:"4,keyasint"`
	Filters       Filters    `json:"filters,omitempty" cbor:"5,keyasint,omitempty"`
}

// Validate checks ranges and the timeline limit.
func (s ListSpec) Validate() error {
	if err := ValidateRanges(s.Ranges); err != nil {
		return err
	}
	if s.TimelineLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrTimelineLimit, s.TimelineLimit)
	}
	return nil
}

// Equal reports deep equality of two specs.
func (s ListSpec) Equal(other ListSpec) bool {
	return canonicalEqual(s, other)
}

// Clone returns a copy that shares no slices or maps with s.
func (s ListSpec) Clone() ListSpec {
	return ListSpec{
		Ranges:        slices.Clone(s.Ranges),
		Sort:          slices.Clone(s.Sort),
		RequiredState: slices.Clone(s.RequiredState),
		TimelineLimit: s.TimelineLimit,
		Filters:       maps.Clone(s.Filters),
	}
}

// ListPatch lists the fields to change on a ListSpec. Nil fields are left
// untouched; a non-nil pointer to an empty slice is an explicit empty value.
type ListPatch struct {
	Ranges        *[]Range
	Sort          *[]string
	RequiredState *[]StateKey
	TimelineLimit *int
	Filters       *Filters
}

// WithRanges returns a copy of p setting the ranges.
// Calling it with no arguments sets an empty window.
func (p ListPatch) WithRanges(ranges ...Range) ListPatch {
	r := append([]Range{}, ranges...)
	p.Ranges = &r
	return p
}

// WithSort returns a copy of p setting the sort order.
func (p ListPatch) WithSort(keys ...string) ListPatch {
	s := append([]string{}, keys...)
	p.Sort = &s
	return p
}

// WithRequiredState returns a copy of p setting the required state.
func (p ListPatch) WithRequiredState(keys ...StateKey) ListPatch {
	rs := append([]StateKey{}, keys...)
	p.RequiredState = &rs
	return p
}

// WithTimelineLimit returns a copy of p setting the timeline limit.
func (p ListPatch) WithTimelineLimit(limit int) ListPatch {
	p.TimelineLimit = &limit
	return p
}

// WithFilters returns a copy of p setting the filters.
func (p ListPatch) WithFilters(f Filters) ListPatch {
	c := maps.Clone(f)
	if c == nil {
		c = Filters{}
	}
	p.Filters = &c
	return p
}

// Fields returns the MSC3575 names of the fields set in p.
func (p ListPatch) Fields() []string {
	var fields []string
	if p.Ranges != nil {
		fields = append(fields, "ranges")
	}
	if p.Sort != nil {
		fields = append(fields, "sort")
	}
	if p.RequiredState != nil {
		fields = append(fields, "required_state")
	}
	if p.TimelineLimit != nil {
		fields = append(fields, "timeline_limit")
	}
	if p.Filters != nil {
		fields = append(fields, "filters")
	}
	return fields
}

// IsEmpty reports whether no field is set.
func (p ListPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// RangesOnly reports whether ranges is the only field set.
func (p ListPatch) RangesOnly() bool {
	return p.Ranges != nil && p.Sort == nil && p.RequiredState == nil &&
		p.TimelineLimit == nil && p.Filters == nil
}

// Validate checks the fields that are set.
func (p ListPatch) Validate() error {
	if p.Ranges != nil {
		if err := ValidateRanges(*p.Ranges); err != nil {
			return err
		}
	}
	if p.TimelineLimit != nil && *p.TimelineLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrTimelineLimit, *p.TimelineLimit)
	}
	return nil
}

// Apply returns base with every field set in p replacing the base value.
// The result shares no slices or maps with base or p.
func (p ListPatch) Apply(base ListSpec) ListSpec {
	out := base.Clone()
	if p.Ranges != nil {
		out.Ranges = append([]Range{}, (*p.Ranges)...)
	}
	if p.Sort != nil {
		out.Sort = append([]string{}, (*p.Sort)...)
	}
	if p.RequiredState != nil {
		out.RequiredState = append([]StateKey{}, (*p.RequiredState)...)
	}
	if p.TimelineLimit != nil {
		out.TimelineLimit = *p.TimelineLimit
	}
	if p.Filters != nil {
		out.Filters = maps.Clone(*p.Filters)
	}
	return out
}

// RoomSubscription is the per-room request used for explicitly subscribed
// rooms.
type RoomSubscription struct {
	RequiredState []StateKey `json:"required_state" cbor:"1,keyasint"`
	TimelineLimit int        `json:"timeline_limit" cbor:"2,keyasint"`
}

// ListResponse is the per-list part of a sync response.
type ListResponse struct {
	Count int `json:"count" cbor:"1,keyasint"`
}

// RoomResponse is the per-room part of a sync response.
type RoomResponse struct {
	Name    string `json:"name,omitempty" cbor:"1,keyasint,omitempty"`
	Initial bool   `json:"initial,omitempty" cbor:"2,keyasint,omitempty"`
}

// SyncResponse is the part of a processed sync round the coordinator
// inspects.
type SyncResponse struct {
	Pos   string                     `json:"pos" cbor:"1,keyasint"`
	Lists map[int]ListResponse       `json:"lists,omitempty" cbor:"2,keyasint,omitempty"`
	Rooms map[id.RoomID]RoomResponse `json:"rooms,omitempty" cbor:"3,keyasint,omitempty"`
}

// HasList reports whether the response carries data for the list index.
func (r *SyncResponse) HasList(index int) bool {
	if r == nil {
		return false
	}
	_, ok := r.Lists[index]
	return ok
}

// HasRoom reports whether the response carries data for the room.
func (r *SyncResponse) HasRoom(roomID id.RoomID) bool {
	if r == nil {
		return false
	}
	_, ok := r.Rooms[roomID]
	return ok
}
