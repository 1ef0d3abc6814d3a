package lifecycle

import (
	"errors"
	"testing"
)

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{LostOwn, Recovered, true},
		{LostOwn, LostOther, false},
		{LostOwn, Adopted, false},
		{LostOther, Recovered, true},
		{LostOther, Adopted, true},
		{LostOther, LostOwn, false},
		{Recovered, LostOwn, true},
		{Recovered, LostOther, true},
		{Recovered, Adopted, false},
		{Adopted, LostOwn, false},
		{Adopted, LostOther, false},
		{Adopted, Recovered, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := IsValidTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSelfTransitionAlwaysValid(t *testing.T) {
	for _, s := range All {
		if !IsValidTransition(s, s) {
			t.Errorf("IsValidTransition(%s, %s) = false, want true", s, s)
		}
	}
}

// TestAdoptedIsTerminal checks that ADOPTED only accepts itself.
func TestAdoptedIsTerminal(t *testing.T) {
	for _, x := range All {
		got := IsValidTransition(Adopted, x)
		if got != (x == Adopted) {
			t.Errorf("IsValidTransition(ADOPTADO, %s) = %v, want %v", x, got, x == Adopted)
		}
	}
	if !Terminal(Adopted) {
		t.Error("Terminal(ADOPTADO) = false")
	}
	if Terminal(Recovered) {
		t.Error("Terminal(RECUPERADO) = true")
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	if IsValidTransition("PERDIDO", "PERDIDO") {
		t.Error("unknown self-transition should be rejected")
	}
	if IsValidTransition(LostOwn, "ENCONTRADO") {
		t.Error("transition to unknown status should be rejected")
	}
}

func TestCheck(t *testing.T) {
	if err := Check(LostOther, Adopted); err != nil {
		t.Fatalf("Check(PERDIDO_AJENO, ADOPTADO) error = %v", err)
	}
	err := Check(LostOwn, LostOther)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Check error = %v, want *TransitionError", err)
	}
	if te.From != LostOwn || te.To != LostOther {
		t.Errorf("error = %v -> %v, want PERDIDO_PROPIO -> PERDIDO_AJENO", te.From, te.To)
	}
}

func TestRequiresConfirmation(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{Recovered, LostOwn, true},
		{Recovered, LostOther, true},
		{Recovered, Recovered, false},
		{LostOwn, Recovered, false},
		{LostOther, Adopted, false},
	}
	for _, tt := range tests {
		if got := RequiresConfirmation(tt.from, tt.to); got != tt.want {
			t.Errorf("RequiresConfirmation(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAllowedStartsWithCurrent(t *testing.T) {
	got := Allowed(LostOther)
	want := []Status{LostOther, Recovered, Adopted}
	if len(got) != len(want) {
		t.Fatalf("Allowed(PERDIDO_AJENO) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Allowed[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if a := Allowed(Adopted); len(a) != 1 || a[0] != Adopted {
		t.Errorf("Allowed(ADOPTADO) = %v, want [ADOPTADO]", a)
	}
	if a := Allowed("X"); a != nil {
		t.Errorf("Allowed(X) = %v, want nil", a)
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("RECUPERADO")
	if err != nil || s != Recovered {
		t.Errorf("Parse(RECUPERADO) = %v, %v", s, err)
	}
	if _, err := Parse("recuperado"); err == nil {
		t.Error("Parse(recuperado) should fail")
	}
}
