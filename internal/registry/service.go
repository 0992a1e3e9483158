package registry

import (
	"context"
	"errors"
	"time"

	"github.com/lgulliver/cargolifter/pkg/types"
	"github.com/rs/zerolog/log"
)

// QueueSize is the capacity of the command queue
const QueueSize = 16

// ErrStopped is returned when enqueueing on a service whose Run has returned
var ErrStopped = errors.New("command service stopped")

type envelope struct {
	ctx context.Context
	cmd Command
}

// Service serializes every index mutation through a single consumer
type Service struct {
	saga     Saga
	commands chan envelope
	done     chan struct{}
	recorder Recorder
	cache    PublishedCache
}

// Option configures optional Service collaborators
type Option func(*Service)

// WithRecorder records the outcome of each command
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithCache answers IsVersionPublished from cache when possible
func WithCache(c PublishedCache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService creates a command service. Call Run to start consuming.
func NewService(saga Saga, opts ...Option) *Service {
	s := &Service{
		saga:     saga,
		commands: make(chan envelope, QueueSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes commands one at a time, in arrival order, until ctx is done
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)
	log.Info().Int("queue_size", QueueSize).Msg("Command service started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Command service stopped")
			return
		case env := <-s.commands:
			s.dispatch(env)
		}
	}
}

// Enqueue adds cmd to the queue, blocking while it is full. ctx bounds the
// wait and identifies the caller; once dequeued the command runs to
// completion regardless of ctx.
func (s *Service) Enqueue(ctx context.Context, cmd Command) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}

	select {
	case s.commands <- envelope{ctx: ctx, cmd: cmd}:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish enqueues a PublishCommand and waits for its outcome
func (s *Service) Publish(ctx context.Context, token string, req *types.PublishRequest) bool {
	reply := make(chan bool, 1)
	return s.call(ctx, &PublishCommand{Token: token, Request: req, Reply: reply}, reply)
}

// Yank enqueues a YankCommand and waits for its outcome
func (s *Service) Yank(ctx context.Context, token string, req *types.YankRequest) bool {
	reply := make(chan bool, 1)
	return s.call(ctx, &YankCommand{Token: token, Request: req, Reply: reply}, reply)
}

// IsVersionPublished enqueues an IsVersionPublishedCommand and waits for its outcome
func (s *Service) IsVersionPublished(ctx context.Context, token, name, vers string) bool {
	reply := make(chan bool, 1)
	return s.call(ctx, &IsVersionPublishedCommand{Token: token, Name: name, Vers: vers, Reply: reply}, reply)
}

func (s *Service) call(ctx context.Context, cmd Command, reply chan bool) bool {
	if err := s.Enqueue(ctx, cmd); err != nil {
		name, vers := cmd.crate()
		log.Error().Err(err).Str("command", cmd.kind()).Str("crate", name).Str("version", vers).Msg("Failed to enqueue command")
		return false
	}

	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (s *Service) dispatch(env envelope) {
	cmd := env.cmd
	name, vers := cmd.crate()
	ctx := context.WithoutCancel(env.ctx)
	start := time.Now()

	ok, err := s.execute(ctx, cmd)
	elapsed := time.Since(start)

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Str("command", cmd.kind()).
		Str("crate", name).
		Str("version", vers).
		Bool("ok", ok).
		Dur("duration", elapsed).
		Msg("Command executed")

	if s.recorder != nil {
		if recErr := s.recorder.Record(ctx, cmd.kind(), name, vers, err, elapsed); recErr != nil {
			log.Warn().Err(recErr).Str("command", cmd.kind()).Msg("Failed to record command")
		}
	}

	if env.ctx.Err() != nil {
		log.Warn().
			Str("command", cmd.kind()).
			Str("crate", name).
			Str("version", vers).
			Bool("ok", ok).
			Msg("Caller went away before the command finished")
	}
	cmd.reply(ok)
}

func (s *Service) execute(ctx context.Context, cmd Command) (bool, error) {
	switch c := cmd.(type) {
	case *PublishCommand:
		if err := s.saga.Publish(ctx, c.Token, c.Request); err != nil {
			return false, err
		}
		s.markPublished(ctx, c.Request.Meta.Name, c.Request.Meta.Vers)
		return true, nil

	case *YankCommand:
		if err := s.saga.Yank(ctx, c.Token, c.Request); err != nil {
			return false, err
		}
		return true, nil

	case *IsVersionPublishedCommand:
		if s.cache != nil {
			if cached, err := s.cache.IsPublished(ctx, c.Name, c.Vers); err != nil {
				log.Warn().Err(err).Str("crate", c.Name).Msg("Failed to read published cache")
			} else if cached {
				return true, nil
			}
		}
		published, err := s.saga.IsVersionPublished(ctx, c.Token, c.Name, c.Vers)
		if err != nil {
			return false, err
		}
		if published {
			s.markPublished(ctx, c.Name, c.Vers)
		}
		return published, nil
	}

	return false, errors.New("unknown command")
}

func (s *Service) markPublished(ctx context.Context, name, vers string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkPublished(ctx, name, vers); err != nil {
		log.Warn().Err(err).Str("crate", name).Str("version", vers).Msg("Failed to update published cache")
	}
}
