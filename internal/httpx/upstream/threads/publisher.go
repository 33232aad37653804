package threads

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
)

const (
	defaultPollAttempts = 30
	defaultPollInterval = 5 * time.Second
)

// Publisher turns drafts into containers and publishes them
type Publisher struct {
	client       *Client
	pollAttempts int
	pollInterval time.Duration
}

// PublisherOption configures the Publisher
type PublisherOption func(*Publisher)

// WithPolling sets how container status is polled before publishing
func WithPolling(attempts int, interval time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.pollAttempts = attempts
		p.pollInterval = interval
	}
}

// NewPublisher creates a new Threads publisher
func NewPublisher(client *Client, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:       client,
		pollAttempts: defaultPollAttempts,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreateContainer creates the container for a draft: text only, a single
// attachment, or a carousel whose children are created concurrently.
func (p *Publisher) CreateContainer(ctx context.Context, accessToken string, d entity.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}

	in := ContainerInput{
		Text:           d.Text,
		ReplyControl:   d.ReplyControl,
		ReplyToID:      d.ReplyToID,
		LinkAttachment: d.LinkAttachment,
		QuotePostID:    d.QuotePostID,
	}

	switch {
	case len(d.Attachments) == 0:
		in.MediaType = ContainerText
	case !d.IsCarousel():
		applyAttachment(&in, d.Attachments[0])
	default:
		children, err := p.createChildren(ctx, accessToken, d.Attachments)
		if err != nil {
			return "", fmt.Errorf("creating carousel items: %w", err)
		}
		in.MediaType = ContainerCarousel
		in.Children = children
	}

	id, err := p.client.CreateContainer(ctx, accessToken, in)
	if err != nil {
		return "", fmt.Errorf("creating media container: %w", err)
	}
	return id, nil
}

func (p *Publisher) createChildren(ctx context.Context, accessToken string, attachments []entity.Attachment) ([]string, error) {
	ids := make([]string, len(attachments))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range attachments {
		g.Go(func() error {
			in := ContainerInput{IsCarouselItem: true}
			applyAttachment(&in, a)

			id, err := p.client.CreateContainer(gctx, accessToken, in)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

func applyAttachment(in *ContainerInput, a entity.Attachment) {
	in.AltText = a.AltText
	if a.Type == entity.AttachmentVideo {
		in.MediaType = ContainerVideo
		in.VideoURL = a.URL
		return
	}
	in.MediaType = ContainerImage
	in.ImageURL = a.URL
}

// Publish publishes a container, optionally waiting for it to finish
// processing first
func (p *Publisher) Publish(ctx context.Context, accessToken, containerID string, wait bool) (string, error) {
	if containerID == "" {
		return "", entity.ErrMissingContainerID
	}
	if wait {
		if err := p.WaitForContainer(ctx, accessToken, containerID); err != nil {
			return "", fmt.Errorf("waiting for container: %w", err)
		}
	}

	id, err := p.client.Publish(ctx, accessToken, containerID)
	if err != nil {
		return "", fmt.Errorf("publishing container: %w", err)
	}
	return id, nil
}

// WaitForContainer polls the container until it is ready for publishing
func (p *Publisher) WaitForContainer(ctx context.Context, accessToken, containerID string) error {
	for i := 0; i < p.pollAttempts; i++ {
		status, err := p.client.ContainerStatus(ctx, accessToken, containerID)
		if err != nil {
			return fmt.Errorf("checking container status: %w", err)
		}

		switch status.Status {
		case entity.ContainerStatusFinished, entity.ContainerStatusPublished:
			return nil
		case entity.ContainerStatusError:
			return fmt.Errorf("%w: %s", entity.ErrContainerFailed, status.ErrorMessage)
		case entity.ContainerStatusExpired:
			return entity.ErrContainerExpired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}

	return entity.ErrContainerNotReady
}
