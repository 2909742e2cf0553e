package notify

import (
	"context"
	"testing"
	"time"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

func seed(t *testing.T, mem *store.Memory, id string) {
	t.Helper()
	u := &models.User{ID: id, EmailHash: "hash-" + id, Role: models.RoleDonor, CreatedAt: time.Now().UTC()}
	if err := mem.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func TestSendAndList(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem, mem)
	ctx := context.Background()
	seed(t, mem, "u1")

	n, err := s.Send(ctx, "u1", "d1", "pickup at noon")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.ID == "" || n.Read {
		t.Errorf("bad notification: %+v", n)
	}

	inbox, err := s.List(ctx, "u1")
	if err != nil || len(inbox) != 1 {
		t.Fatalf("inbox = %v, %v", inbox, err)
	}
}

func TestSend_Rejections(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem, mem)
	ctx := context.Background()
	seed(t, mem, "u1")

	if _, err := s.Send(ctx, "", "", "hi"); !apperr.IsValidation(err) {
		t.Errorf("empty recipient: got %v, want validation error", err)
	}
	if _, err := s.Send(ctx, "u1", "", ""); !apperr.IsValidation(err) {
		t.Errorf("empty message: got %v, want validation error", err)
	}
	if _, err := s.Send(ctx, "ghost", "", "hi"); !apperr.IsNotFound(err) {
		t.Errorf("unknown recipient: got %v, want not found", err)
	}
}

func TestMarkRead_RecipientOnly(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem, mem)
	ctx := context.Background()
	seed(t, mem, "u1")

	n, err := s.Send(ctx, "u1", "", "hello")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.MarkRead(ctx, "intruder", n.ID); !apperr.IsAuthorization(err) {
		t.Errorf("non-recipient: got %v, want authorization error", err)
	}
	if err := s.MarkRead(ctx, "u1", n.ID); err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if err := s.MarkRead(ctx, "u1", "missing"); !apperr.IsNotFound(err) {
		t.Errorf("missing notification: got %v, want not found", err)
	}

	inbox, _ := s.List(ctx, "u1")
	if len(inbox) != 1 || !inbox[0].Read {
		t.Errorf("read flag not persisted: %+v", inbox)
	}
}
