// Package matching ranks study partners, groups and resources by binary
// cosine similarity over label tokens.
//
// The package is pure: it performs no I/O, keeps no state between calls and
// never mutates its inputs, so every function is safe for concurrent use.
package matching

// Vector is the flattened token sequence of an entity's comparison fields.
// Order and duplicates are irrelevant to scoring.
type Vector []string

// Vectorizer projects an entity of kind T onto its feature tokens.
type Vectorizer[T any] func(T) Vector

// Profile holds the fields of a person that take part in partner matching.
type Profile struct {
	Subjects            []string
	PreferredStudyTimes []string
	AcademicLevel       string // "" when absent
	LearningStyle       string // "" when absent
}

// Group holds the fields of a study group that take part in recommendation.
type Group struct {
	Subject       string
	AcademicLevel string
}

// Resource holds the fields of a learning resource that take part in recommendation.
type Resource struct {
	SubjectTags []string
}

// PersonVector returns subjects, then preferred study times, then the academic
// level and learning style when set. Tokens are copied verbatim.
func PersonVector(p Profile) Vector {
	v := make(Vector, 0, len(p.Subjects)+len(p.PreferredStudyTimes)+2)
	v = append(v, p.Subjects...)
	v = append(v, p.PreferredStudyTimes...)
	if p.AcademicLevel != "" {
		v = append(v, p.AcademicLevel)
	}
	if p.LearningStyle != "" {
		v = append(v, p.LearningStyle)
	}
	return v
}

// GroupVector returns [subject, academicLevel], skipping empty fields.
func GroupVector(g Group) Vector {
	v := make(Vector, 0, 2)
	if g.Subject != "" {
		v = append(v, g.Subject)
	}
	if g.AcademicLevel != "" {
		v = append(v, g.AcademicLevel)
	}
	return v
}

// ResourceVector returns the resource's subject tags.
func ResourceVector(r Resource) Vector {
	v := make(Vector, len(r.SubjectTags))
	copy(v, r.SubjectTags)
	return v
}

// StudentGroupVector is the person-side projection used against GroupVector.
func StudentGroupVector(p Profile) Vector {
	v := make(Vector, 0, len(p.Subjects)+1)
	v = append(v, p.Subjects...)
	if p.AcademicLevel != "" {
		v = append(v, p.AcademicLevel)
	}
	return v
}

// StudentResourceVector is the person-side projection used against
// ResourceVector: subjects followed by the IDs of resources the person has
// already interacted with.
func StudentResourceVector(p Profile, interactedResourceIDs []string) Vector {
	v := make(Vector, 0, len(p.Subjects)+len(interactedResourceIDs))
	v = append(v, p.Subjects...)
	v = append(v, interactedResourceIDs...)
	return v
}
