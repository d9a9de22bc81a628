package scheduler

import "fmt"

// CollectionType is the waste category targeted by a collection visit.
type CollectionType string

const (
	CollectionWet   CollectionType = "wet"
	CollectionDry   CollectionType = "dry"
	CollectionMixed CollectionType = "mixed"
	CollectionAll   CollectionType = "all"
)

// ParseCollectionType validates a raw collection type value.
func ParseCollectionType(value string) (CollectionType, error) {
	collectionType := CollectionType(value)
	if !collectionType.Valid() {
		return "", fmt.Errorf("scheduler: unknown collection type %q", value)
	}
	return collectionType, nil
}

// Valid reports whether the collection type is one of the enumerated values.
func (c CollectionType) Valid() bool {
	switch c {
	case CollectionWet, CollectionDry, CollectionMixed, CollectionAll:
		return true
	}
	return false
}
