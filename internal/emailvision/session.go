package emailvision

import "context"

// Release closes the session at the end of a scope and reports the error
// the scope should return. prior is the error already in flight, if any.
//
// Close runs detached from ctx's cancellation, so a cancelled or expired
// scope still ends the server session; the HTTP client timeout bounds it.
//
// When Close succeeds prior is returned untouched. When Close fails and
// prior is nil the close error is returned; when both failed they are
// folded into one KindCombined error, whose message carries both.
//
//	defer func() { err = client.Release(ctx, err) }()
func (c *Client) Release(ctx context.Context, prior error) error {
	closeErr := c.Close(context.WithoutCancel(ctx))
	switch {
	case closeErr == nil:
		return prior
	case prior == nil:
		return closeErr
	default:
		return combineErrors(closeErr, prior)
	}
}

// WithSession opens a session, runs fn with it and always closes it
// afterwards. A panic in fn still closes the session before it resumes.
func WithSession(ctx context.Context, cfg Config, fn func(*Client) error, opts ...Option) (err error) {
	client, err := New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = client.Close(context.WithoutCancel(ctx))
			panic(r)
		}
		err = client.Release(ctx, err)
	}()

	return fn(client)
}
