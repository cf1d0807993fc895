package deposit

import (
	"strings"
	"testing"
	"time"

	vo "tapbridge/internal/domain/deposit/valueobjects"
)

func TestNewIntent(t *testing.T) {
	intent, err := NewIntent("user-1", 5_000_000, "0xdeposit", time.Hour)
	if err != nil {
		t.Fatalf("NewIntent() error = %v, want nil", err)
	}

	if !strings.HasPrefix(intent.DepositID(), "dep_") {
		t.Errorf("DepositID() = %q, want dep_ prefix", intent.DepositID())
	}
	if intent.Status() != vo.DepositStatusWaiting {
		t.Errorf("Status() = %s, want waiting", intent.Status())
	}
	if intent.UniqueAmountRaw() <= intent.AmountRaw() {
		t.Errorf("UniqueAmountRaw() = %d, want > nominal %d", intent.UniqueAmountRaw(), intent.AmountRaw())
	}
	if got := intent.UniqueAmountRaw() - intent.AmountRaw(); got != vo.OffsetRaw("user-1") {
		t.Errorf("unique amount offset = %d, want %d", got, vo.OffsetRaw("user-1"))
	}
	if intent.TxHash() != nil {
		t.Error("TxHash() should be nil before a transfer is observed")
	}
	if !intent.ExpiresAt().After(intent.CreatedAt()) {
		t.Error("ExpiresAt() should be after CreatedAt()")
	}
}

func TestNewIntent_Validation(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		amountRaw      uint64
		depositAddress string
		ttl            time.Duration
	}{
		{"empty user", "", 1_000_000, "0xdeposit", time.Hour},
		{"zero amount", "user-1", 0, "0xdeposit", time.Hour},
		{"empty address", "user-1", 1_000_000, "", time.Hour},
		{"zero ttl", "user-1", 1_000_000, "0xdeposit", 0},
		{"negative ttl", "user-1", 1_000_000, "0xdeposit", -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIntent(tt.userID, tt.amountRaw, tt.depositAddress, tt.ttl)
			if err == nil {
				t.Error("NewIntent() error = nil, want error")
			}
		})
	}
}

func TestIntent_Lifecycle(t *testing.T) {
	intent, err := NewIntent("user-1", 5_000_000, "0xdeposit", time.Hour)
	if err != nil {
		t.Fatalf("NewIntent() error = %v", err)
	}

	if err := intent.MarkConfirmed(); err == nil {
		t.Error("MarkConfirmed() from waiting should fail")
	}

	if err := intent.MarkPending("0xabc", 2); err != nil {
		t.Fatalf("MarkPending() error = %v", err)
	}
	if intent.Status() != vo.DepositStatusPending {
		t.Errorf("Status() = %s, want pending", intent.Status())
	}
	if intent.TxHash() == nil || *intent.TxHash() != "0xabc" {
		t.Errorf("TxHash() = %v, want 0xabc", intent.TxHash())
	}
	if intent.Confirmations() != 2 {
		t.Errorf("Confirmations() = %d, want 2", intent.Confirmations())
	}

	if err := intent.MarkPending("0xdef", 1); err == nil {
		t.Error("MarkPending() from pending should fail")
	}
	if err := intent.MarkExpired(); err == nil {
		t.Error("MarkExpired() from pending should fail")
	}

	intent.SetConfirmations(6)
	if err := intent.MarkConfirmed(); err != nil {
		t.Fatalf("MarkConfirmed() error = %v", err)
	}
	if intent.Status() != vo.DepositStatusConfirmed {
		t.Errorf("Status() = %s, want confirmed", intent.Status())
	}

	// Confirming again is a no-op, not an error.
	if err := intent.MarkConfirmed(); err != nil {
		t.Errorf("repeated MarkConfirmed() error = %v, want nil", err)
	}
}

func TestIntent_MarkPending_RequiresTxHash(t *testing.T) {
	intent, _ := NewIntent("user-1", 5_000_000, "0xdeposit", time.Hour)
	if err := intent.MarkPending("", 1); err == nil {
		t.Error("MarkPending(\"\") error = nil, want error")
	}
	if intent.Status() != vo.DepositStatusWaiting {
		t.Errorf("Status() = %s, want waiting after rejected transition", intent.Status())
	}
}

func TestIntent_Expiry(t *testing.T) {
	intent, err := NewIntent("user-1", 5_000_000, "0xdeposit", time.Millisecond)
	if err != nil {
		t.Fatalf("NewIntent() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if !intent.IsExpired() {
		t.Error("IsExpired() = false after TTL elapsed")
	}

	if err := intent.MarkExpired(); err != nil {
		t.Fatalf("MarkExpired() error = %v", err)
	}
	if intent.Status() != vo.DepositStatusExpired {
		t.Errorf("Status() = %s, want expired", intent.Status())
	}

	// Terminal: a late transfer must never move it back.
	if err := intent.MarkPending("0xlate", 1); err == nil {
		t.Error("MarkPending() on expired intent should fail")
	}
	if err := intent.MarkConfirmed(); err == nil {
		t.Error("MarkConfirmed() on expired intent should fail")
	}

	// Expiring again is a no-op.
	if err := intent.MarkExpired(); err != nil {
		t.Errorf("repeated MarkExpired() error = %v, want nil", err)
	}
}

func TestIntent_IsExpired_OnlyAppliesToWaiting(t *testing.T) {
	intent, _ := NewIntent("user-1", 5_000_000, "0xdeposit", time.Millisecond)
	if err := intent.MarkPending("0xabc", 1); err != nil {
		t.Fatalf("MarkPending() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if intent.IsExpired() {
		t.Error("IsExpired() = true for pending intent, want false")
	}
}

func TestReconstructIntent(t *testing.T) {
	txHash := "0xabc"
	now := time.Now().UTC()

	intent := ReconstructIntent(IntentParams{
		DBID:            7,
		DepositID:       "dep_test",
		UserID:          "user-1",
		AmountRaw:       5_000_000,
		UniqueAmountRaw: 5_012_300,
		DepositAddress:  "0xdeposit",
		Status:          vo.DepositStatusPending,
		Confirmations:   3,
		TxHash:          &txHash,
		ExpiresAt:       now.Add(time.Hour),
		Version:         2,
		CreatedAt:       now,
		UpdatedAt:       now,
	})

	if intent.DBID() != 7 || intent.DepositID() != "dep_test" {
		t.Errorf("identity fields not preserved: dbID=%d depositID=%s", intent.DBID(), intent.DepositID())
	}
	if intent.Status() != vo.DepositStatusPending || intent.Confirmations() != 3 {
		t.Errorf("state fields not preserved: status=%s confirmations=%d", intent.Status(), intent.Confirmations())
	}

	// A reconstructed pending intent can still be confirmed.
	if err := intent.MarkConfirmed(); err != nil {
		t.Errorf("MarkConfirmed() on reconstructed intent error = %v", err)
	}
}
