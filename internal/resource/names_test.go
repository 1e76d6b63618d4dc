package resource

import (
	"errors"
	"testing"
)

func TestParseParent(t *testing.T) {
	id, err := ParseParent("wallets/abc_DEF-123")
	if err != nil {
		t.Fatalf("parse parent: %v", err)
	}
	if id != "abc_DEF-123" {
		t.Fatalf("unexpected wallet id %q", id)
	}

	for _, name := range []string{
		"",
		"wallets/",
		"wallets/abc/",
		"Wallets/abc",
		"users/abc/wallet",
		"wallets/a%20b",
		"wallets/abc/transactions/x",
	} {
		if _, err := ParseParent(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected invalid name for %q, got %v", name, err)
		}
	}
}

func TestParseResource(t *testing.T) {
	walletID, txID, err := ParseResource("wallets/w1/transactions/t1", Transactions)
	if err != nil {
		t.Fatalf("parse resource: %v", err)
	}
	if walletID != "w1" || txID != "t1" {
		t.Fatalf("unexpected ids %q %q", walletID, txID)
	}

	if _, _, err := ParseResource("wallets/w1/payouts/p1", Transactions); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected collection mismatch to fail, got %v", err)
	}
	if _, _, err := ParseResource("wallets/w1/transactions/t1/", Transactions); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected trailing slash to fail, got %v", err)
	}
	if _, _, err := ParseResource("wallets/w1/things/t1", "things"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected unknown collection to fail, got %v", err)
	}
}

func TestNamesRoundTrip(t *testing.T) {
	for _, collection := range []string{Transactions, Payouts, Recharges} {
		name := ItemName("w-9", collection, "i_1")
		walletID, id, err := ParseResource(name, collection)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if walletID != "w-9" || id != "i_1" {
			t.Fatalf("round trip mismatch for %s", name)
		}
	}
	if TransactionName("a", "b") != "wallets/a/transactions/b" {
		t.Fatalf("unexpected transaction name")
	}
}
