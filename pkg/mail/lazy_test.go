package mail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []Message
}

func (r *recordingMailer) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func TestLazyMailerBuildsOnce(t *testing.T) {
	var builds int32
	target := &recordingMailer{}
	lazy := NewLazyMailer(func() (Mailer, error) {
		atomic.AddInt32(&builds, 1)
		return target, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lazy.Send(context.Background(), Message{To: "a@example.com"}); err != nil {
				t.Errorf("send: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Fatalf("expected factory to run once, ran %d times", got)
	}
	if len(target.messages) != 16 {
		t.Fatalf("expected 16 messages, got %d", len(target.messages))
	}
}

func TestLazyMailerRetainsFactoryError(t *testing.T) {
	var builds int32
	boom := errors.New("boom")
	lazy := NewLazyMailer(func() (Mailer, error) {
		atomic.AddInt32(&builds, 1)
		return nil, boom
	})

	for i := 0; i < 3; i++ {
		if err := lazy.Send(context.Background(), Message{}); !errors.Is(err, boom) {
			t.Fatalf("expected factory error, got %v", err)
		}
	}
	if builds != 1 {
		t.Fatalf("expected a single factory call, got %d", builds)
	}
}

func TestLogMailerNeverFails(t *testing.T) {
	if err := NewLogMailer().Send(context.Background(), Message{To: "a@example.com", Subject: "s"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
