package wire

import (
	"encoding/json"
	"errors"
	"testing"

	"maunium.net/go/mautrix/id"
)

func TestRangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       Range
		wantErr bool
	}{
		{"single position", NewRange(0, 0), false},
		{"window", NewRange(0, 20), false},
		{"negative start", NewRange(-1, 5), true},
		{"start after end", NewRange(10, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRanges(t *testing.T) {
	if err := ValidateRanges(nil); err != nil {
		t.Errorf("empty ranges: %v", err)
	}
	if err := ValidateRanges([]Range{NewRange(0, 9), NewRange(10, 19)}); err != nil {
		t.Errorf("adjacent ranges: %v", err)
	}
	err := ValidateRanges([]Range{NewRange(0, 10), NewRange(10, 19)})
	if !errors.Is(err, ErrRangeOrder) {
		t.Errorf("overlapping ranges error = %v, want ErrRangeOrder", err)
	}
	err = ValidateRanges([]Range{NewRange(20, 30), NewRange(0, 9)})
	if !errors.Is(err, ErrRangeOrder) {
		t.Errorf("descending ranges error = %v, want ErrRangeOrder", err)
	}
}

func TestRangeJSON(t *testing.T) {
	data, err := json.Marshal([]Range{NewRange(0, 20), NewRange(40, 45)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[[0,20],[40,45]]" {
		t.Errorf("JSON = %s, want [[0,20],[40,45]]", data)
	}

	var back []Range
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(back) != 2 || back[1] != NewRange(40, 45) {
		t.Errorf("Unmarshal = %v", back)
	}
}

func TestListSpecJSONFieldNames(t *testing.T) {
	spec := ListSpec{
		Ranges:        []Range{NewRange(0, 5)},
		RequiredState: []StateKey{NewStateKey("m.room.create", "")},
		TimelineLimit: 1,
	}
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"ranges":[[0,5]],"required_state":[["m.room.create",""]],"timeline_limit":1}`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}
}

func TestListPatchApplyKeepsUnsetFields(t *testing.T) {
	base := testSpec()
	patch := ListPatch{}.WithSort(SortByName)

	merged := patch.Apply(base)

	if len(merged.Sort) != 1 || merged.Sort[0] != SortByName {
		t.Errorf("Sort = %v, want [by_name]", merged.Sort)
	}
	if len(merged.Ranges) != 1 || merged.Ranges[0] != NewRange(0, 20) {
		t.Errorf("Ranges = %v, want base ranges", merged.Ranges)
	}
	if merged.TimelineLimit != base.TimelineLimit {
		t.Errorf("TimelineLimit = %d, want %d", merged.TimelineLimit, base.TimelineLimit)
	}
}

func TestListPatchApplyDoesNotAlias(t *testing.T) {
	base := testSpec()
	merged := ListPatch{}.Apply(base)

	merged.Ranges[0] = NewRange(5, 6)
	merged.Filters["is_dm"] = false

	if base.Ranges[0] != NewRange(0, 20) {
		t.Error("mutating merged ranges changed base")
	}
	if base.Filters["is_dm"] != true {
		t.Error("mutating merged filters changed base")
	}
}

func TestListPatchEmptyRanges(t *testing.T) {
	patch := ListPatch{}.WithRanges()
	if !patch.RangesOnly() {
		t.Error("RangesOnly() = false for empty ranges patch")
	}

	merged := patch.Apply(testSpec())
	if merged.Ranges == nil || len(merged.Ranges) != 0 {
		t.Errorf("Ranges = %#v, want empty non-nil slice", merged.Ranges)
	}
}

func TestListPatchFields(t *testing.T) {
	patch := ListPatch{}.WithRanges(NewRange(0, 1)).WithTimelineLimit(5)

	fields := patch.Fields()
	if len(fields) != 2 || fields[0] != "ranges" || fields[1] != "timeline_limit" {
		t.Errorf("Fields() = %v", fields)
	}
	if patch.RangesOnly() {
		t.Error("RangesOnly() = true with timeline_limit set")
	}
	if (ListPatch{}).IsEmpty() != true {
		t.Error("zero patch should be empty")
	}
}

func TestListPatchValidate(t *testing.T) {
	if err := (ListPatch{}).WithTimelineLimit(0).Validate(); !errors.Is(err, ErrTimelineLimit) {
		t.Errorf("Validate() = %v, want ErrTimelineLimit", err)
	}
	if err := (ListPatch{}).WithRanges(NewRange(3, 1)).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Validate() = %v, want ErrInvalidRange", err)
	}
}

func TestListSpecEqual(t *testing.T) {
	a := testSpec()
	b := testSpec()
	if !a.Equal(b) {
		t.Error("identical specs compared unequal")
	}

	b.Sort = []string{SortByRecency, SortByHighlightCount}
	if a.Equal(b) {
		t.Error("sort order must be significant")
	}
}

func TestSyncResponseHas(t *testing.T) {
	var nilResp *SyncResponse
	if nilResp.HasList(0) || nilResp.HasRoom("!a:x") {
		t.Error("nil response should have nothing")
	}

	resp := &SyncResponse{
		Lists: map[int]ListResponse{2: {Count: 10}},
		Rooms: map[id.RoomID]RoomResponse{"!a:x": {Name: "a"}},
	}
	if !resp.HasList(2) || resp.HasList(0) {
		t.Error("HasList mismatch")
	}
	if !resp.HasRoom("!a:x") || resp.HasRoom("!b:x") {
		t.Error("HasRoom mismatch")
	}
}

func TestLifecycleStateString(t *testing.T) {
	if StateComplete.String() != "COMPLETE" {
		t.Errorf("String() = %q", StateComplete.String())
	}
	if LifecycleState(99).String() != "UNKNOWN" {
		t.Errorf("String() = %q", LifecycleState(99).String())
	}
}
