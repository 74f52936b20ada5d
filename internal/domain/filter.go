package domain

import "github.com/google/uuid"

// ItemFilter contains filtering/pagination parameters for inventory searches.
// All set fields are combined conjunctively.
type ItemFilter struct {
	// Search performs ILIKE '%...%' on serial number, asset tag and location.
	Search      *string
	Status      *ItemStatus
	Kind        *ItemKind
	ProductID   *uuid.UUID
	ContainerID *uuid.UUID
	Limit       int
	Offset      int
}

// TagFilter contains filtering/pagination parameters for tag searches.
type TagFilter struct {
	// Search performs ILIKE '%...%' on EPC and TID.
	Search *string
	Status *TagStatus
	Limit  int
	Offset int
}
