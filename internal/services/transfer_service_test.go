package services

import (
	"context"
	"sync"
	"testing"

	"wallet/internal/db"
	"wallet/internal/pin"
	"wallet/internal/store"
)

func seedAccount(t *testing.T, mem *memStore, id, phone string, balance int64, rawPin string) {
	t.Helper()
	account := accountFixture(id, phone, balance)
	if rawPin != "" {
		hash, err := pin.Hash(rawPin)
		if err != nil {
			t.Fatalf("failed to hash pin: %v", err)
		}
		account.PinHash = hash
	}
	mem.putAccount(account)
}

func TestTransferHappyPath(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	service, hub, publisher := newTestService(mem)

	entry, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801722222222",
		AmountMinor:    300,
		Pin:            "1234",
		Note:           "Lunch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mem.balance("acc-s") != 700 || mem.balance("acc-r") != 800 {
		t.Fatalf("unexpected balances: %d / %d", mem.balance("acc-s"), mem.balance("acc-r"))
	}
	if mem.balance("acc-s")+mem.balance("acc-r") != 1500 {
		t.Fatal("transfer must conserve the total balance")
	}
	if mem.entryCount() != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", mem.entryCount())
	}
	if entry.FromAccount != "acc-s" || entry.ToAccount != "acc-r" || entry.Amount != 300 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry.FromPhone != "+8801711111111" || entry.ToPhone != "+8801722222222" {
		t.Fatalf("entry must snapshot both phones: %#v", entry)
	}
	if entry.Status != StatusSuccess || entry.Currency != Currency {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if len(entry.Participants) != 2 {
		t.Fatalf("expected both real parties as participants: %#v", entry.Participants)
	}
	if entry.Reference == "" {
		t.Fatal("expected a transfer reference")
	}
	if hub.count() != 2 {
		t.Fatalf("expected balance updates for both parties, got %d", hub.count())
	}
	if publisher.count() != 1 {
		t.Fatalf("expected one completed event, got %d", publisher.count())
	}
	if len(mem.audits) != 1 || mem.audits[0] != "transfer" {
		t.Fatalf("expected a transfer audit record, got %#v", mem.audits)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 100, "1234")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	service, hub, publisher := newTestService(mem)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801722222222",
		AmountMinor:    300,
		Pin:            "1234",
	})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if mem.balance("acc-s") != 100 || mem.balance("acc-r") != 500 {
		t.Fatal("rejected transfer must not change balances")
	}
	if mem.entryCount() != 0 {
		t.Fatal("rejected transfer must not append a ledger entry")
	}
	if hub.count() != 0 || publisher.count() != 0 {
		t.Fatal("rejected transfer must not notify anyone")
	}
}

func TestTransferPinNotSet(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	service, _, _ := newTestService(mem)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801722222222",
		AmountMinor:    300,
		Pin:            "1234",
	})
	if err != ErrPinNotSet {
		t.Fatalf("expected ErrPinNotSet, got %v", err)
	}
	if mem.balance("acc-s") != 1000 || mem.entryCount() != 0 {
		t.Fatal("failed pin check must leave no trace")
	}
}

func TestTransferWrongPin(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	service, _, _ := newTestService(mem)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801722222222",
		AmountMinor:    300,
		Pin:            "4321",
	})
	if err != ErrPinMismatch {
		t.Fatalf("expected ErrPinMismatch, got %v", err)
	}
	if mem.balance("acc-s") != 1000 || mem.entryCount() != 0 {
		t.Fatal("failed pin check must leave no trace")
	}
}

func TestTransferInputValidation(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	service, _, _ := newTestService(mem)

	cases := []struct {
		name string
		req  TransferRequest
		want error
	}{
		{"zero amount", TransferRequest{SenderID: "acc-s", RecipientPhone: "+8801722222222", AmountMinor: 0, Pin: "1234"}, ErrInvalidAmount},
		{"negative amount", TransferRequest{SenderID: "acc-s", RecipientPhone: "+8801722222222", AmountMinor: -5, Pin: "1234"}, ErrInvalidAmount},
		{"bad phone", TransferRequest{SenderID: "acc-s", RecipientPhone: "12ab", AmountMinor: 100, Pin: "1234"}, ErrInvalidPhone},
		{"bad pin shape", TransferRequest{SenderID: "acc-s", RecipientPhone: "+8801722222222", AmountMinor: 100, Pin: "12"}, ErrInvalidPin},
	}
	for _, tc := range cases {
		if _, err := service.Transfer(context.Background(), tc.req); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if mem.entryCount() != 0 || mem.balance("acc-s") != 1000 {
		t.Fatal("validation failures must perform zero mutations")
	}
}

func TestTransferRecipientNotFound(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	service, _, _ := newTestService(mem)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801799999999",
		AmountMinor:    100,
		Pin:            "1234",
	})
	if err != ErrRecipientNotFound {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}

func TestTransferToSelfRejected(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	service, _, _ := newTestService(mem)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801711111111",
		AmountMinor:    100,
		Pin:            "1234",
	})
	if err != ErrSelfTransfer {
		t.Fatalf("expected ErrSelfTransfer, got %v", err)
	}
	if mem.balance("acc-s") != 1000 || mem.entryCount() != 0 {
		t.Fatal("self-transfer must leave no trace")
	}
}

func TestTransferUnknownSender(t *testing.T) {
	mem := newMemStore()
	service, _, _ := newTestService(mem)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "ghost",
		RecipientPhone: "+8801722222222",
		AmountMinor:    100,
		Pin:            "1234",
	})
	if err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestConcurrentTransfersFromSameSender(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	seedAccount(t, mem, "acc-r1", "+8801722222222", 500, "")
	seedAccount(t, mem, "acc-r2", "+8801733333333", 500, "")
	service, _, _ := newTestService(mem)

	phones := []string{"+8801722222222", "+8801733333333"}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Transfer(context.Background(), TransferRequest{
				SenderID:       "acc-s",
				RecipientPhone: phones[i],
				AmountMinor:    600,
				Pin:            "1234",
			})
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch err {
		case nil:
			succeeded++
		case ErrInsufficientFunds:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", succeeded, rejected)
	}
	if mem.balance("acc-s") != 400 {
		t.Fatalf("expected sender balance 400, got %d", mem.balance("acc-s"))
	}
	if mem.entryCount() != 1 {
		t.Fatalf("expected one ledger entry, got %d", mem.entryCount())
	}
}

func TestTopUp(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 700, "")
	service, hub, publisher := newTestService(mem)

	entry, err := service.TopUp(context.Background(), "acc-s", 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mem.balance("acc-s") != 900 {
		t.Fatalf("expected balance 900, got %d", mem.balance("acc-s"))
	}
	if entry.FromAccount != SentinelTopUp || entry.ToAccount != "acc-s" || entry.Amount != 200 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if len(entry.Participants) != 1 || entry.Participants[0] != "acc-s" {
		t.Fatalf("sentinel must not be a participant: %#v", entry.Participants)
	}
	if len(mem.topups) != 1 || mem.topups[0].Method != TopUpMethod {
		t.Fatalf("expected a top-up receipt, got %#v", mem.topups)
	}
	if hub.count() != 1 || publisher.count() != 1 {
		t.Fatal("expected one balance update and one event")
	}
}

func TestTopUpInvalidAmount(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 700, "")
	service, _, _ := newTestService(mem)

	if _, err := service.TopUp(context.Background(), "acc-s", 0); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := service.TopUp(context.Background(), "ghost", 100); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAdjustBalanceCredit(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 500, "")
	service, _, _ := newTestService(mem)

	entry, err := service.AdjustBalance(context.Background(), "acc-s", 250, "ops")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mem.balance("acc-s") != 750 {
		t.Fatalf("expected balance 750, got %d", mem.balance("acc-s"))
	}
	if entry.FromAccount != SentinelAdmin || entry.ToAccount != "acc-s" || entry.Amount != 250 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestAdjustBalanceDebit(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 500, "")
	service, _, _ := newTestService(mem)

	entry, err := service.AdjustBalance(context.Background(), "acc-s", -200, "ops")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mem.balance("acc-s") != 300 {
		t.Fatalf("expected balance 300, got %d", mem.balance("acc-s"))
	}
	if entry.FromAccount != "acc-s" || entry.ToAccount != SentinelAdmin || entry.Amount != 200 {
		t.Fatalf("debit must run towards the sentinel with a positive amount: %#v", entry)
	}
	if len(entry.Participants) != 1 || entry.Participants[0] != "acc-s" {
		t.Fatalf("sentinel must not be a participant: %#v", entry.Participants)
	}
}

func TestAdjustBalanceCannotGoNegative(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 100, "")
	service, _, _ := newTestService(mem)

	if _, err := service.AdjustBalance(context.Background(), "acc-s", -300, "ops"); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if mem.balance("acc-s") != 100 || mem.entryCount() != 0 {
		t.Fatal("rejected adjustment must leave no trace")
	}
}

func TestSetPinThenTransfer(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	service, _, _ := newTestService(mem)

	if err := service.SetPin(context.Background(), "acc-s", "1234"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801722222222",
		AmountMinor:    300,
		Pin:            "1234",
	}); err != nil {
		t.Fatalf("transfer after SetPin failed: %v", err)
	}
}

func TestSetPinValidation(t *testing.T) {
	mem := newMemStore()
	service, _, _ := newTestService(mem)

	if err := service.SetPin(context.Background(), "acc-s", "12"); err != ErrInvalidPin {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}
	if err := service.SetPin(context.Background(), "ghost", "1234"); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpdateProfileMergesFields(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "")
	service, _, _ := newTestService(mem)

	name := "Alice B"
	if err := service.UpdateProfile(context.Background(), "acc-s", store.ProfileUpdate{DisplayName: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	account, err := mem.GetByID(context.Background(), "acc-s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.DisplayName != "Alice B" {
		t.Fatalf("display name not updated: %#v", account)
	}
	if account.Phone != "+8801711111111" || account.Balance != 1000 {
		t.Fatal("untouched fields must keep their values")
	}
}

func TestUpdateProfilePhoneConflict(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	service, _, _ := newTestService(mem)

	phone := "+8801722222222"
	if err := service.UpdateProfile(context.Background(), "acc-s", store.ProfileUpdate{Phone: &phone}); err != ErrPhoneTaken {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
}

func TestUpdateProfileRejectsBadPhone(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "")
	service, _, _ := newTestService(mem)

	phone := "not-a-phone"
	if err := service.UpdateProfile(context.Background(), "acc-s", store.ProfileUpdate{Phone: &phone}); err != ErrInvalidPhone {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestTransferSurfacesTransientConflict(t *testing.T) {
	mem := newMemStore()
	seedAccount(t, mem, "acc-s", "+8801711111111", 1000, "1234")
	seedAccount(t, mem, "acc-r", "+8801722222222", 500, "")
	hub := &stubHub{}
	publisher := &stubPublisher{}
	service := NewTransferService(&fakeTxRunner{err: db.ErrTxRetryLimit}, mem, NewAccountResolver(mem), mem, mem, mem, hub, publisher)

	_, err := service.Transfer(context.Background(), TransferRequest{
		SenderID:       "acc-s",
		RecipientPhone: "+8801722222222",
		AmountMinor:    300,
		Pin:            "1234",
	})
	if err != db.ErrTxRetryLimit {
		t.Fatalf("expected ErrTxRetryLimit, got %v", err)
	}
	if hub.count() != 0 || publisher.count() != 0 {
		t.Fatal("a failed unit must not notify anyone")
	}
}
