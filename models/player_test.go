package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, true},
		{StatusFailed, StatusPending, true},
		{StatusCompleted, StatusPending, true},

		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false, want true", s)
		}
	}
	if Status("poison").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestStatFieldsCount(t *testing.T) {
	var f StatFields
	if f.Count() != 0 {
		t.Fatalf("empty StatFields Count = %d, want 0", f.Count())
	}

	kills := 4821
	kd := 1.34
	hs := "42%"
	f.Kills = &kills
	f.KDRatio = &kd
	f.HeadshotPercent = &hs

	if got := f.Count(); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
}
