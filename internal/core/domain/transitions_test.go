package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		old     LicenceStatus
		next    LicenceStatus
		allowed bool
	}{
		{"draft to pending", StatusBrouillon, StatusEnAttente, true},
		{"pending to validated", StatusEnAttente, StatusValidee, true},
		{"pending to rejected", StatusEnAttente, StatusRefusee, true},
		{"validated to expired", StatusValidee, StatusExpiree, true},
		{"draft straight to validated", StatusBrouillon, StatusValidee, false},
		{"validated back to pending", StatusValidee, StatusEnAttente, false},
		{"rejected is terminal", StatusRefusee, StatusEnAttente, false},
		{"expired is terminal", StatusExpiree, StatusValidee, false},
		{"self transition", StatusEnAttente, StatusEnAttente, false},
		{"unknown status", LicenceStatus("annulee"), StatusValidee, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.old, tc.next); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.old, tc.next, got, tc.allowed)
			}
		})
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, status := range []LicenceStatus{StatusBrouillon, StatusEnAttente, StatusValidee, StatusRefusee, StatusExpiree} {
		successors := TransitionsFrom(status)
		if status.Terminal() && len(successors) != 0 {
			t.Fatalf("terminal status %s has successors %v", status, successors)
		}
		if !status.Terminal() && len(successors) == 0 {
			t.Fatalf("non-terminal status %s has no successors", status)
		}
	}
}

func TestLicenceStatusValid(t *testing.T) {
	for _, status := range []LicenceStatus{StatusBrouillon, StatusEnAttente, StatusValidee, StatusRefusee, StatusExpiree} {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if LicenceStatus("annulee").Valid() {
		t.Fatalf("unknown status must not be valid")
	}
	if LicenceStatus("").Valid() {
		t.Fatalf("empty status must not be valid")
	}
}

func TestDuplicateCandidateComplete(t *testing.T) {
	complete := DuplicateCandidate{ClubID: 5, Nom: "Martin", Prenom: "Alice", DateNaissance: "1990-01-01"}
	if !complete.Complete() {
		t.Fatalf("expected complete tuple")
	}

	partials := []DuplicateCandidate{
		{Nom: "Martin", Prenom: "Alice", DateNaissance: "1990-01-01"},
		{ClubID: 5, Prenom: "Alice", DateNaissance: "1990-01-01"},
		{ClubID: 5, Nom: "Martin", DateNaissance: "1990-01-01"},
		{ClubID: 5, Nom: "Martin", Prenom: "Alice"},
	}
	for i, candidate := range partials {
		if candidate.Complete() {
			t.Fatalf("partial tuple %d must not be complete", i)
		}
	}
}
