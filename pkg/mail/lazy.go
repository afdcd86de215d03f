package mail

import (
	"context"
	"errors"
	"sync"
)

// LazyMailer defers construction of the underlying mailer until the first Send.
// The factory runs at most once; its result, including a construction error,
// is retained for the lifetime of the process.
type LazyMailer struct {
	factory func() (Mailer, error)

	once   sync.Once
	mailer Mailer
	err    error
}

// NewLazyMailer wraps factory in a once-initialised Mailer.
func NewLazyMailer(factory func() (Mailer, error)) *LazyMailer {
	return &LazyMailer{factory: factory}
}

// Send initialises the mailer on first use and delegates delivery to it.
func (l *LazyMailer) Send(ctx context.Context, msg Message) error {
	mailer, err := l.get()
	if err != nil {
		return err
	}
	return mailer.Send(ctx, msg)
}

func (l *LazyMailer) get() (Mailer, error) {
	l.once.Do(func() {
		if l.factory == nil {
			l.err = errors.New("mail: lazy mailer has no factory")
			return
		}
		l.mailer, l.err = l.factory()
		if l.err == nil && l.mailer == nil {
			l.err = errors.New("mail: factory returned nil mailer")
		}
	})
	return l.mailer, l.err
}
