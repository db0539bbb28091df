// Package notify implements the notification classification use case:
// it turns raw registry webhook envelopes into typed domain events and
// dispatches them in order.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/cainy/dockhand/internal/boundaries/out"
	"github.com/cainy/dockhand/internal/domain"
)

// Service classifies notification envelopes and publishes the resulting
// events. Batch processing is strictly sequential and ordered: downstream
// consumers may rely on push-before-delete ordering for the same digest.
type Service struct {
	publisher out.EventPublisher
	log       zerowrap.Logger
}

// NewService creates a new notification service.
func NewService(publisher out.EventPublisher, log zerowrap.Logger) *Service {
	return &Service{
		publisher: publisher,
		log:       log,
	}
}

// ProcessBatch classifies and dispatches every envelope of a webhook
// batch, in array order. Structurally invalid items are logged and
// skipped; classification failures abort the batch and propagate. A nil
// return means classification completed, not that every event was
// successfully handled downstream.
func (s *Service) ProcessBatch(ctx context.Context, events []json.RawMessage) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ProcessBatch",
	})
	log := zerowrap.FromCtx(ctx)

	if len(events) == 0 {
		return domain.ErrMalformedBatch
	}

	for i, raw := range events {
		var envelope domain.EventEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Error().Err(err).Int("index", i).Msg("malformed event envelope, skipping")
			continue
		}

		if !envelope.StructurallyValid() {
			log.Error().Int("index", i).Msg("event envelope missing essential fields, skipping")
			continue
		}

		event, err := s.Classify(ctx, &envelope)
		if err != nil {
			return err
		}
		if event == nil {
			// skip outcome, already logged by Classify
			continue
		}

		if err := s.publisher.Publish(*event); err != nil {
			return fmt.Errorf("%w: dispatching event %s: %v", domain.ErrEventProcessingFailed, envelope.ID, err)
		}
	}

	return nil
}

// Classify decides which typed domain event an envelope represents,
// following the fixed decision table over (action, media-type class,
// tag/digest presence). It returns (nil, nil) for the skip outcomes that
// let a batch continue; every returned error aborts the batch.
func (s *Service) Classify(ctx context.Context, envelope *domain.EventEnvelope) (*domain.RegistryEvent, error) {
	log := zerowrap.FromCtx(ctx)

	action, err := domain.ParseEventAction(envelope.Action)
	if err != nil {
		log.Error().
			Str("action", envelope.Action).
			Str("event_id", envelope.ID).
			Msg("unparseable event action")
		return nil, err
	}

	target := envelope.Target
	hasMediaType := target.MediaType != ""
	mediaType := domain.MediaTypeFromString(target.MediaType)
	isManifest := hasMediaType && (mediaType.IsImageManifest() || mediaType.IsManifestList())

	switch action {
	case domain.EventActionPush:
		if !hasMediaType {
			log.Error().Str("event_id", envelope.ID).Msg("push event without a target media type, skipping")
			return nil, nil
		}
		if isManifest {
			return s.event(ctx, domain.EventManifestPushed, action, envelope), nil
		}
		if !mediaType.IsBlobLike() {
			log.Warn().
				Str("media_type", target.MediaType).
				Str("event_id", envelope.ID).
				Msg("unhandled media type for push, defaulting to blob pushed")
		}
		return s.event(ctx, domain.EventBlobPushed, action, envelope), nil

	case domain.EventActionPull:
		if !hasMediaType {
			log.Error().Str("event_id", envelope.ID).Msg("pull event without a target media type, skipping")
			return nil, nil
		}
		if isManifest {
			return s.event(ctx, domain.EventManifestPulled, action, envelope), nil
		}
		if !mediaType.IsBlobLike() {
			log.Warn().
				Str("media_type", target.MediaType).
				Str("event_id", envelope.ID).
				Msg("unhandled media type for pull, defaulting to blob pulled")
		}
		return s.event(ctx, domain.EventBlobPulled, action, envelope), nil

	case domain.EventActionMount:
		if isManifest {
			log.Error().
				Str("media_type", target.MediaType).
				Str("event_id", envelope.ID).
				Msg("mount event for a manifest media type is invalid, skipping")
			return nil, nil
		}
		if hasMediaType && !mediaType.IsBlobLike() {
			log.Warn().
				Str("media_type", target.MediaType).
				Str("event_id", envelope.ID).
				Msg("mount event with unexpected media type, assuming blob-like")
		}
		return s.event(ctx, domain.EventBlobMounted, action, envelope), nil

	case domain.EventActionDelete:
		switch {
		case target.Tag != "":
			return s.event(ctx, domain.EventTagDeleted, action, envelope), nil
		case target.Digest != "" && isManifest:
			return s.event(ctx, domain.EventManifestDeleted, action, envelope), nil
		case target.Digest != "":
			return s.event(ctx, domain.EventBlobDeleted, action, envelope), nil
		default:
			log.Error().Str("event_id", envelope.ID).Msg("delete event without target tag or digest, skipping")
			return nil, nil
		}

	default:
		// unreachable while ParseEventAction and this switch cover the same
		// four actions; an action added there without a case here must fail
		// loudly, never default
		return nil, fmt.Errorf("%w: %q (event %s)", domain.ErrUnsupportedAction, envelope.Action, envelope.ID)
	}
}

// event builds the immutable typed event from an envelope.
func (s *Service) event(ctx context.Context, eventType domain.RegistryEventType, action domain.EventAction, envelope *domain.EventEnvelope) *domain.RegistryEvent {
	log := zerowrap.FromCtx(ctx)

	var mediaType domain.MediaType
	if envelope.Target.MediaType != "" {
		mediaType = domain.MediaTypeFromString(envelope.Target.MediaType)
		if mediaType.IsCustom() {
			log.Warn().
				Str("media_type", envelope.Target.MediaType).
				Str("event_id", envelope.ID).
				Msg("unknown media type")
		}
	}

	log.Info().
		Str(zerowrap.FieldEvent, string(eventType)).
		Str("event_id", envelope.ID).
		Str("repository", envelope.Target.Repository).
		Msg("event classified")

	return &domain.RegistryEvent{
		Type:      eventType,
		ID:        envelope.ID,
		Timestamp: envelope.Timestamp,
		Action:    action,

		TargetRepository: envelope.Target.Repository,
		TargetDigest:     envelope.Target.Digest,
		TargetTag:        envelope.Target.Tag,
		TargetMediaType:  mediaType,
		TargetSize:       envelope.Target.Size,
		TargetURL:        envelope.Target.URL,

		RequestID:        envelope.Request.ID,
		RequestAddr:      envelope.Request.Addr,
		RequestHost:      envelope.Request.Host,
		RequestMethod:    envelope.Request.Method,
		RequestUserAgent: envelope.Request.UserAgent,

		ActorName:        envelope.Actor.Name,
		SourceAddr:       envelope.Source.Addr,
		SourceInstanceID: envelope.Source.InstanceID,
	}
}
