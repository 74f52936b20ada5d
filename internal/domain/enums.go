package domain

// ItemKind classifies a physical unit for grouping purposes.
// No kind-specific transition rules exist beyond containment.
type ItemKind string

const (
	ItemKindUnit      ItemKind = "UNIT"
	ItemKindContainer ItemKind = "CONTAINER"
	ItemKindBulk      ItemKind = "BULK"
)

func (k ItemKind) String() string { return string(k) }

func (k ItemKind) IsValid() bool {
	switch k {
	case ItemKindUnit, ItemKindContainer, ItemKindBulk:
		return true
	}
	return false
}

// ItemStatus is the physical state of a tracked item. No status is terminal:
// any status may transition to any other, and every transition is logged.
type ItemStatus string

const (
	ItemStatusIn          ItemStatus = "IN"
	ItemStatusOut         ItemStatus = "OUT"
	ItemStatusMaintenance ItemStatus = "MAINTENANCE"
	ItemStatusLost        ItemStatus = "LOST"
)

func (s ItemStatus) String() string { return string(s) }

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusIn, ItemStatusOut, ItemStatusMaintenance, ItemStatusLost:
		return true
	}
	return false
}

// MovementType identifies what kind of state change a movement records.
type MovementType string

const (
	MovementTypeEnrollment MovementType = "ENROLLMENT"
	MovementTypeCheckIn    MovementType = "CHECK_IN"
	MovementTypeCheckOut   MovementType = "CHECK_OUT"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	MovementTypeTransfer   MovementType = "TRANSFER"
)

func (t MovementType) String() string { return string(t) }

func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEnrollment, MovementTypeCheckIn, MovementTypeCheckOut,
		MovementTypeAdjustment, MovementTypeTransfer:
		return true
	}
	return false
}

// TagStatus is the registry state of an RFID tag.
//
// UNKNOWN means the row was created purely by detection ingestion and has
// never been explicitly registered or enrolled. UNASSIGNED means the tag was
// explicitly registered, or was enrolled once and later unenrolled.
type TagStatus string

const (
	TagStatusEnrolled   TagStatus = "ENROLLED"
	TagStatusUnassigned TagStatus = "UNASSIGNED"
	TagStatusUnknown    TagStatus = "UNKNOWN"
)

func (s TagStatus) String() string { return string(s) }

func (s TagStatus) IsValid() bool {
	switch s {
	case TagStatusEnrolled, TagStatusUnassigned, TagStatusUnknown:
		return true
	}
	return false
}

// Direction is the optional reader-reported travel direction of a detection.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

func (d Direction) String() string { return string(d) }

func (d Direction) IsValid() bool {
	switch d {
	case DirectionIn, DirectionOut:
		return true
	}
	return false
}

// EntityType identifies the kind of domain entity (used in audit logs).
type EntityType string

const (
	EntityTypeItem EntityType = "ITEM"
	EntityTypeTag  EntityType = "TAG"
)

func (t EntityType) String() string { return string(t) }

// AuditAction identifies the kind of operator action recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionEnroll   AuditAction = "ENROLL"
	AuditActionUnenroll AuditAction = "UNENROLL"
)

func (a AuditAction) String() string { return string(a) }
