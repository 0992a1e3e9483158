package storage

import (
	"context"
	"errors"
	"time"

	"github.com/lgulliver/cargolifter/pkg/utils"
	"github.com/rs/zerolog/log"
)

// QueueSize is the capacity of the storage queue
const QueueSize = 16

// ErrStopped is returned when enqueueing on a service whose Run has returned
var ErrStopped = errors.New("storage service stopped")

// Command is a unit of work for the storage service
type Command interface {
	execute(ctx context.Context, store CrateStore)
}

// PutCommand stores a tarball; Reply receives whether it succeeded
type PutCommand struct {
	Name  string
	Vers  string
	Data  []byte
	Reply chan bool
}

// GetCommand loads a tarball; Reply receives nil when it is missing or
// could not be read
type GetCommand struct {
	Name  string
	Vers  string
	Reply chan []byte
}

func (c *PutCommand) execute(ctx context.Context, store CrateStore) {
	start := time.Now()
	err := store.Put(ctx, c.Name, c.Vers, c.Data)
	if err != nil {
		log.Error().Err(err).Str("crate", c.Name).Str("version", c.Vers).Msg("Failed to store crate")
	} else {
		log.Info().
			Str("crate", c.Name).
			Str("version", c.Vers).
			Str("size", utils.FormatBytes(int64(len(c.Data)))).
			Dur("duration", time.Since(start)).
			Msg("Crate stored")
	}

	if c.Reply != nil {
		select {
		case c.Reply <- err == nil:
		default:
		}
	}
}

func (c *GetCommand) execute(ctx context.Context, store CrateStore) {
	data, err := store.Get(ctx, c.Name, c.Vers)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Debug().Str("crate", c.Name).Str("version", c.Vers).Msg("Crate not found")
	case err != nil:
		log.Error().Err(err).Str("crate", c.Name).Str("version", c.Vers).Msg("Failed to load crate")
	}

	if c.Reply != nil {
		select {
		case c.Reply <- data:
		default:
		}
	}
}

type envelope struct {
	ctx context.Context
	cmd Command
}

// Service serializes access to a CrateStore through a single consumer
type Service struct {
	store    CrateStore
	commands chan envelope
	done     chan struct{}
}

func NewService(store CrateStore) *Service {
	return &Service{
		store:    store,
		commands: make(chan envelope, QueueSize),
		done:     make(chan struct{}),
	}
}

// Run consumes commands in arrival order until ctx is done
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)
	log.Info().Int("queue_size", QueueSize).Msg("Storage service started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Storage service stopped")
			return
		case env := <-s.commands:
			env.cmd.execute(context.WithoutCancel(env.ctx), s.store)
		}
	}
}

// Enqueue adds cmd to the queue, blocking while it is full
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

// Put stores data and waits for the outcome
func (s *Service) Put(ctx context.Context, name, vers string, data []byte) bool {
	reply := make(chan bool, 1)
	if err := s.Enqueue(ctx, &PutCommand{Name: name, Vers: vers, Data: data, Reply: reply}); err != nil {
		log.Error().Err(err).Str("crate", name).Msg("Failed to enqueue put")
		return false
	}

	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

// Get loads a tarball and waits for it; nil means unavailable
func (s *Service) Get(ctx context.Context, name, vers string) []byte {
	reply := make(chan []byte, 1)
	if err := s.Enqueue(ctx, &GetCommand{Name: name, Vers: vers, Reply: reply}); err != nil {
		log.Error().Err(err).Str("crate", name).Msg("Failed to enqueue get")
		return nil
	}

	select {
	case data := <-reply:
		return data
	case <-ctx.Done():
		return nil
	}
}
