package stride

import "testing"

func TestVisitorJournalAddAndExtract(t *testing.T) {
	j := NewVisitorJournal()
	j.Add(10, 1, RegionID(2), 5)
	j.Add(11, 2, RegionID(2), 5)
	j.Add(12, 3, RegionID(3), 6)

	if !j.IsVisitor(10) {
		t.Fatalf("expected 10 to be tracked as a visitor")
	}
	if got, want := j.VisitorCount(), 3; got != want {
		t.Fatalf(UnequalIntParameterError, "VisitorCount", want, got)
	}

	day5 := j.Extract(5)
	if got, want := len(day5[RegionID(2)]), 2; got != want {
		t.Fatalf("Extract(5)[region 2] len = %d, want %d", got, want)
	}
	if j.IsVisitor(10) || j.IsVisitor(11) {
		t.Errorf("Extract(5) should have removed visitors 10 and 11")
	}
	if !j.IsVisitor(12) {
		t.Errorf("Extract(5) should not have removed visitor 12 (due day 6)")
	}
	if got, want := j.VisitorCount(), 1; got != want {
		t.Errorf(UnequalIntParameterError, "VisitorCount after Extract", want, got)
	}
}

func TestVisitorJournalExtractEmptyDay(t *testing.T) {
	j := NewVisitorJournal()
	entries := j.Extract(99)
	if len(entries) != 0 {
		t.Errorf("expected no entries for an unused return day, got %d", len(entries))
	}
}

func TestExpatriateJournalAddAndExtract(t *testing.T) {
	j := NewExpatriateJournal()
	p := newTestPerson(1, 30)
	j.Add(1, ExpatriateRecord{Person: p, VisitedRegion: 2, ReturnDay: 10})

	if got, want := j.Count(), 1; got != want {
		t.Fatalf(UnequalIntParameterError, "Count", want, got)
	}

	rec, ok := j.Extract(1)
	if !ok {
		t.Fatalf("Extract(1) reported not found")
	}
	if rec.Person != p || rec.VisitedRegion != 2 || rec.ReturnDay != 10 {
		t.Errorf("Extract(1) returned an unexpected record: %+v", rec)
	}
	if got, want := j.Count(), 0; got != want {
		t.Errorf(UnequalIntParameterError, "Count after Extract", want, got)
	}

	if _, ok := j.Extract(1); ok {
		t.Errorf("second Extract(1) should report not found")
	}
}
