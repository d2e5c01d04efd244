package detection

import (
	"fmt"
	"slices"
)

// ObjectFilter selects which detected objects are shown.
type ObjectFilter string

const (
	ObjectsAll     ObjectFilter = "all"
	ObjectsPerson  ObjectFilter = "person"
	ObjectsVehicle ObjectFilter = "vehicle"
	ObjectsAnimal  ObjectFilter = "animal"
)

var (
	vehicleLabels = []string{"car", "truck", "bus", "motorcycle"}
	animalLabels  = []string{"dog", "cat", "bird", "horse"}
)

// ParseObjectFilter validates a filter value coming from the page.
func ParseObjectFilter(s string) (ObjectFilter, error) {
	switch f := ObjectFilter(s); f {
	case ObjectsAll, ObjectsPerson, ObjectsVehicle, ObjectsAnimal:
		return f, nil
	case "":
		return ObjectsAll, nil
	default:
		return ObjectsAll, fmt.Errorf("unknown object filter %q", s)
	}
}

// Match reports whether an object with the given label passes the filter.
func (f ObjectFilter) Match(label string) bool {
	switch f {
	case ObjectsPerson:
		return label == "person"
	case ObjectsVehicle:
		return slices.Contains(vehicleLabels, label)
	case ObjectsAnimal:
		return slices.Contains(animalLabels, label)
	default:
		return true
	}
}

// FaceFilter selects which face events are shown.
type FaceFilter string

const (
	FacesAll     FaceFilter = "all"
	FacesKnown   FaceFilter = "known"
	FacesUnknown FaceFilter = "unknown"
)

// ParseFaceFilter validates a filter value coming from the page.
func ParseFaceFilter(s string) (FaceFilter, error) {
	switch f := FaceFilter(s); f {
	case FacesAll, FacesKnown, FacesUnknown:
		return f, nil
	case "":
		return FacesAll, nil
	default:
		return FacesAll, fmt.Errorf("unknown face filter %q", s)
	}
}

// Match reports whether a face event passes the filter.
func (f FaceFilter) Match(face FaceMatch) bool {
	switch f {
	case FacesKnown:
		return !face.Unknown()
	case FacesUnknown:
		return face.Unknown()
	default:
		return true
	}
}
