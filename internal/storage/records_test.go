package storage

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func testStudent(id, email string) Student {
	return Student{
		ID:                  id,
		Name:                "Student " + id,
		Email:               email,
		AcademicLevel:       "undergraduate",
		Subjects:            []string{"Mathematics", "Physics"},
		PreferredStudyTimes: []string{"Evening"},
		LearningStyle:       "visual",
	}
}

func TestSaveAndGetStudent(t *testing.T) {
	s := openTestStore(t)

	in := testStudent("s1", "s1@example.com")
	in.StudyGoals = "pass calculus"
	if err := s.SaveStudent(in); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}

	got, err := s.GetStudent("s1")
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got.Name != in.Name || got.Email != in.Email || got.StudyGoals != in.StudyGoals {
		t.Errorf("got %+v, want fields of %+v", got, in)
	}
	if len(got.Subjects) != 2 || got.Subjects[0] != "Mathematics" || got.Subjects[1] != "Physics" {
		t.Errorf("Subjects = %v, want [Mathematics Physics]", got.Subjects)
	}
	if len(got.PreferredStudyTimes) != 1 || got.PreferredStudyTimes[0] != "Evening" {
		t.Errorf("PreferredStudyTimes = %v, want [Evening]", got.PreferredStudyTimes)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestSaveStudent_NilListsStoredEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveStudent(Student{ID: "s1", Name: "A", Email: "a@example.com"}); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	got, err := s.GetStudent("s1")
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got.Subjects == nil || len(got.Subjects) != 0 {
		t.Errorf("Subjects = %#v, want empty non-nil slice", got.Subjects)
	}
}

func TestSaveStudent_UpdatePreservesCreatedAt(t *testing.T) {
	s := openTestStore(t)

	in := testStudent("s1", "s1@example.com")
	in.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.SaveStudent(in); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}

	in.CreatedAt = time.Time{}
	in.Subjects = []string{"Chemistry"}
	if err := s.SaveStudent(in); err != nil {
		t.Fatalf("SaveStudent update: %v", err)
	}

	got, err := s.GetStudent("s1")
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if !got.CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v, want 2024-01-01", got.CreatedAt)
	}
	if len(got.Subjects) != 1 || got.Subjects[0] != "Chemistry" {
		t.Errorf("Subjects = %v, want [Chemistry]", got.Subjects)
	}
}

func TestSaveStudent_DuplicateEmail(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveStudent(testStudent("s1", "same@example.com")); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	err := s.SaveStudent(testStudent("s2", "same@example.com"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestGetStudentNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetStudent("missing")
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListStudents(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		st := testStudent(id, id+"@example.com")
		st.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := s.SaveStudent(st); err != nil {
			t.Fatalf("SaveStudent %s: %v", id, err)
		}
	}

	all, err := s.ListStudents(0, 0)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("ListStudents(0, 0) = %v, want a,b,c", studentIDs(all))
	}

	page, err := s.ListStudents(1, 1)
	if err != nil {
		t.Fatalf("ListStudents page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("ListStudents(1, 1) = %v, want [b]", studentIDs(page))
	}
}

// Students saved within the same second keep the order they were saved in,
// not the order of their IDs.
func TestListStudents_SameSecondKeepsInsertionOrder(t *testing.T) {
	s := openTestStore(t)

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"s", "zz-first", "aa-second", "mm-third"} {
		st := testStudent(id, id+"@example.com")
		st.CreatedAt = created
		if err := s.SaveStudent(st); err != nil {
			t.Fatalf("SaveStudent %s: %v", id, err)
		}
	}
	// Updating a student must not move it to the end.
	first := testStudent("zz-first", "zz-first@example.com")
	first.Name = "Renamed"
	first.CreatedAt = created
	if err := s.SaveStudent(first); err != nil {
		t.Fatalf("SaveStudent update: %v", err)
	}

	all, err := s.ListStudents(0, 0)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	want := []string{"s", "zz-first", "aa-second", "mm-third"}
	if got := studentIDs(all); !reflect.DeepEqual(got, want) {
		t.Errorf("ListStudents = %v, want %v", got, want)
	}
}

func TestDeleteStudent(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveStudent(testStudent("s1", "s1@example.com")); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	if err := s.DeleteStudent("s1"); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	if _, err := s.GetStudent("s1"); err != ErrNotFound {
		t.Errorf("GetStudent after delete: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteStudent("s1"); err != ErrNotFound {
		t.Errorf("second DeleteStudent: err = %v, want ErrNotFound", err)
	}
}

func TestGroupMembership(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveStudent(testStudent("s1", "s1@example.com")); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	if err := s.SaveGroup(StudyGroup{ID: "g1", Title: "Calc", Subject: "Mathematics", AcademicLevel: "undergraduate"}); err != nil {
		t.Fatalf("SaveGroup: %v", err)
	}

	g, err := s.GetGroup("g1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if g.GroupType != "Virtual" {
		t.Errorf("GroupType = %q, want default %q", g.GroupType, "Virtual")
	}

	if err := s.JoinGroup("g1", "s1"); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if err := s.JoinGroup("g1", "s1"); !errors.Is(err, ErrConflict) {
		t.Errorf("second JoinGroup: err = %v, want ErrConflict", err)
	}
	if err := s.JoinGroup("missing", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("JoinGroup unknown group: err = %v, want ErrNotFound", err)
	}
	if err := s.JoinGroup("g1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("JoinGroup unknown student: err = %v, want ErrNotFound", err)
	}

	members, err := s.GroupMembers("g1")
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if len(members) != 1 || members[0] != "s1" {
		t.Errorf("members = %v, want [s1]", members)
	}

	if err := s.LeaveGroup("g1", "s1"); err != nil {
		t.Fatalf("LeaveGroup: %v", err)
	}
	if err := s.LeaveGroup("g1", "s1"); err != ErrNotFound {
		t.Errorf("second LeaveGroup: err = %v, want ErrNotFound", err)
	}
}

func TestGroupMembersCascadeOnStudentDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveStudent(testStudent("s1", "s1@example.com")); err != nil {
		t.Fatalf("SaveStudent: %v", err)
	}
	if err := s.SaveGroup(StudyGroup{ID: "g1", Title: "Calc", Subject: "Mathematics"}); err != nil {
		t.Fatalf("SaveGroup: %v", err)
	}
	if err := s.JoinGroup("g1", "s1"); err != nil {
		t.Fatalf("JoinGroup: %v", err)
	}
	if err := s.DeleteStudent("s1"); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}

	members, err := s.GroupMembers("g1")
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("members = %v, want none after cascade", members)
	}
}

func TestListGroupsFilter(t *testing.T) {
	s := openTestStore(t)

	groups := []StudyGroup{
		{ID: "g1", Title: "Calc", Subject: "Mathematics", AcademicLevel: "undergraduate"},
		{ID: "g2", Title: "Algebra", Subject: "Mathematics", AcademicLevel: "graduate"},
		{ID: "g3", Title: "Mechanics", Subject: "Physics", AcademicLevel: "undergraduate"},
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, g := range groups {
		g.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.SaveGroup(g); err != nil {
			t.Fatalf("SaveGroup %s: %v", g.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter GroupFilter
		want   []string
	}{
		{"all", GroupFilter{}, []string{"g1", "g2", "g3"}},
		{"subject", GroupFilter{Subject: "Mathematics"}, []string{"g1", "g2"}},
		{"subject and level", GroupFilter{Subject: "Mathematics", AcademicLevel: "graduate"}, []string{"g2"}},
		{"level", GroupFilter{AcademicLevel: "undergraduate"}, []string{"g1", "g3"}},
		{"limit", GroupFilter{Limit: 1}, []string{"g1"}},
		{"none", GroupFilter{Subject: "History"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListGroups(tt.filter)
			if err != nil {
				t.Fatalf("ListGroups: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d groups, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("groups[%d] = %q, want %q", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestResourcesAndRatings(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"s1", "s2"} {
		if err := s.SaveStudent(testStudent(id, id+"@example.com")); err != nil {
			t.Fatalf("SaveStudent %s: %v", id, err)
		}
	}
	r := Resource{ID: "r1", Title: "Calculus", ContentURL: "https://example.com/calc", Type: "video", SubjectTags: []string{"Mathematics", "Calculus"}}
	if err := s.SaveResource(r); err != nil {
		t.Fatalf("SaveResource: %v", err)
	}
	if err := s.SaveResource(Resource{ID: "r2", Title: "Unrated", ContentURL: "https://example.com/u", Type: "link"}); err != nil {
		t.Fatalf("SaveResource r2: %v", err)
	}

	got, err := s.GetResource("r1")
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if len(got.SubjectTags) != 2 || got.SubjectTags[1] != "Calculus" {
		t.Errorf("SubjectTags = %v", got.SubjectTags)
	}

	if err := s.RateResource(Interaction{StudentID: "s1", ResourceID: "r1", Rating: 2}); err != nil {
		t.Fatalf("RateResource: %v", err)
	}
	// A second rating by the same student replaces the first.
	if err := s.RateResource(Interaction{StudentID: "s1", ResourceID: "r1", Rating: 4}); err != nil {
		t.Fatalf("RateResource again: %v", err)
	}
	if err := s.RateResource(Interaction{StudentID: "s2", ResourceID: "r1", Rating: 5}); err != nil {
		t.Fatalf("RateResource s2: %v", err)
	}
	if err := s.RateResource(Interaction{StudentID: "s1", ResourceID: "missing", Rating: 5}); !errors.Is(err, ErrNotFound) {
		t.Errorf("RateResource unknown resource: err = %v, want ErrNotFound", err)
	}

	ratings, err := s.ResourceRatings()
	if err != nil {
		t.Fatalf("ResourceRatings: %v", err)
	}
	rr, ok := ratings["r1"]
	if !ok {
		t.Fatal("no rating for r1")
	}
	if rr.Count != 2 || math.Abs(rr.Average-4.5) > 1e-9 {
		t.Errorf("rating = %+v, want average 4.5 over 2", rr)
	}
	if _, ok := ratings["r2"]; ok {
		t.Error("unrated resource should not appear in ratings")
	}

	ids, err := s.InteractedResourceIDs("s1")
	if err != nil {
		t.Fatalf("InteractedResourceIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "r1" {
		t.Errorf("InteractedResourceIDs = %v, want [r1]", ids)
	}

	all, err := s.ListResources(0)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListResources returned %d, want 2", len(all))
	}
}

func TestMatchHistory(t *testing.T) {
	s := openTestStore(t)

	older := MatchHistory{ID: "h1", StudentA: "a", StudentB: "b", CompatibilityScore: 0.5,
		MatchedSubjects: []string{"Mathematics"}, MatchedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := MatchHistory{ID: "h2", StudentA: "a", StudentB: "c", CompatibilityScore: 0.89,
		MatchedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	other := MatchHistory{ID: "h3", StudentA: "b", StudentB: "a", CompatibilityScore: 0.5}
	for _, h := range []MatchHistory{older, newer, other} {
		if err := s.SaveMatchHistory(h); err != nil {
			t.Fatalf("SaveMatchHistory %s: %v", h.ID, err)
		}
	}
	if err := s.SaveMatchHistory(older); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate SaveMatchHistory: err = %v, want ErrConflict", err)
	}

	got, err := s.ListMatchHistory("a", 10)
	if err != nil {
		t.Fatalf("ListMatchHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].ID != "h2" || got[1].ID != "h1" {
		t.Errorf("order = [%s %s], want newest first [h2 h1]", got[0].ID, got[1].ID)
	}
	if len(got[1].MatchedSubjects) != 1 || got[1].MatchedSubjects[0] != "Mathematics" {
		t.Errorf("MatchedSubjects = %v", got[1].MatchedSubjects)
	}

	if err := s.UpdateMatchFeedback("h1", "positive"); err != nil {
		t.Fatalf("UpdateMatchFeedback: %v", err)
	}
	if err := s.UpdateMatchFeedback("missing", "positive"); err != ErrNotFound {
		t.Errorf("UpdateMatchFeedback missing: err = %v, want ErrNotFound", err)
	}
	got, err = s.ListMatchHistory("a", 1)
	if err != nil {
		t.Fatalf("ListMatchHistory: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit 1 returned %d", len(got))
	}
}

func studentIDs(sts []Student) []string {
	ids := make([]string, len(sts))
	for i, st := range sts {
		ids[i] = st.ID
	}
	return ids
}
