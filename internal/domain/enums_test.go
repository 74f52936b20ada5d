package domain

import "testing"

func TestItemStatus_IsValid(t *testing.T) {
	t.Parallel()

	valid := []ItemStatus{ItemStatusIn, ItemStatusOut, ItemStatusMaintenance, ItemStatusLost}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}

	if ItemStatus("RETIRED").IsValid() {
		t.Error("RETIRED should be invalid")
	}
	if ItemStatus("").IsValid() {
		t.Error("empty status should be invalid")
	}
}

func TestItemKind_IsValid(t *testing.T) {
	t.Parallel()

	for _, k := range []ItemKind{ItemKindUnit, ItemKindContainer, ItemKindBulk} {
		if !k.IsValid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if ItemKind("PALLET").IsValid() {
		t.Error("PALLET should be invalid")
	}
}

func TestMovementType_IsValid(t *testing.T) {
	t.Parallel()

	valid := []MovementType{
		MovementTypeEnrollment, MovementTypeCheckIn, MovementTypeCheckOut,
		MovementTypeAdjustment, MovementTypeTransfer,
	}
	for _, mt := range valid {
		if !mt.IsValid() {
			t.Errorf("%s should be valid", mt)
		}
	}
	if MovementType("DISPOSAL").IsValid() {
		t.Error("DISPOSAL should be invalid")
	}
}

func TestTagStatus_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []TagStatus{TagStatusEnrolled, TagStatusUnassigned, TagStatusUnknown} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if TagStatus("RETIRED").IsValid() {
		t.Error("RETIRED should be invalid")
	}
}

func TestDirection_IsValid(t *testing.T) {
	t.Parallel()

	if !DirectionIn.IsValid() || !DirectionOut.IsValid() {
		t.Error("IN/OUT should be valid")
	}
	if Direction("SIDEWAYS").IsValid() {
		t.Error("SIDEWAYS should be invalid")
	}
}
