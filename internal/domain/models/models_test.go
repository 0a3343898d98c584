package models

import "testing"

func TestAccountNumber(t *testing.T) {
	cases := map[int64]string{1: "ACC1001", 42: "ACC1042", 9000: "ACC10000"}
	for id, want := range cases {
		if got := AccountNumber(id); got != want {
			t.Errorf("AccountNumber(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestNewLedgerEntry(t *testing.T) {
	tx := Transaction{ID: 1, FromAccount: "ACC1001", ToAccount: "ACC1002"}

	if e := NewLedgerEntry(tx, "ACC1001"); e.Direction != DirectionSent {
		t.Errorf("expected sent, got %q", e.Direction)
	}
	if e := NewLedgerEntry(tx, "ACC1002"); e.Direction != DirectionReceived {
		t.Errorf("expected received, got %q", e.Direction)
	}
}
