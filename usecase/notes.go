package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"main/dto"
	"main/middleware"
	"main/model"
	"main/repository"
	"main/utils"
)

// MaxTitleLength caps note titles in runes; inputs from the LLM extraction
// path are truncated to it rather than rejected.
const MaxTitleLength = 200

// NoteService wraps the active NoteStore with input validation and field
// coercion. Handlers talk to this layer, never to the store directly.
type NoteService struct {
	Store repository.NoteStore
}

func (svc *NoteService) ListNotes(ctx context.Context) ([]*model.Note, error) {
	return svc.Store.List(ctx)
}

func (svc *NoteService) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	return svc.Store.Get(ctx, id)
}

func (svc *NoteService) CreateNote(ctx context.Context, req *dto.CreateNoteRequest) (*model.Note, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title and content are required", repository.ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds maximum length", repository.ErrValidation)
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: title and content are required", repository.ErrValidation)
	}

	eventDate, eventTime, err := coerceEvent(req.EventDate, req.EventTime)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		Title:     title,
		Content:   *req.Content,
		Tags:      dto.JoinTags(req.Tags),
		EventDate: eventDate,
		EventTime: eventTime,
		Position:  req.Position,
	}

	created, err := svc.Store.Create(ctx, note)
	if err != nil {
		return nil, err
	}
	middleware.TrackNoteOperation("create")
	return created, nil
}

func (svc *NoteService) UpdateNote(ctx context.Context, id int64, req *dto.UpdateNoteRequest) (*model.Note, error) {
	upd := repository.NoteUpdate{
		Content:  req.Content,
		Position: req.Position,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", repository.ErrValidation)
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return nil, fmt.Errorf("%w: title exceeds maximum length", repository.ErrValidation)
		}
		upd.Title = &title
	}
	if req.Tags != nil {
		joined := dto.JoinTags(*req.Tags)
		upd.Tags = &joined
	}
	if req.EventDate != nil {
		if !utils.ValidateEventDate(*req.EventDate) {
			return nil, fmt.Errorf("%w: invalid event_date format", repository.ErrValidation)
		}
		upd.EventDate = req.EventDate
	}
	if req.EventTime != nil {
		normalized, ok := utils.NormalizeEventTime(*req.EventTime)
		if !ok {
			return nil, fmt.Errorf("%w: invalid event_time format", repository.ErrValidation)
		}
		upd.EventTime = &normalized
	}

	updated, err := svc.Store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	middleware.TrackNoteOperation("update")
	return updated, nil
}

func (svc *NoteService) DeleteNote(ctx context.Context, id int64) error {
	if err := svc.Store.Delete(ctx, id); err != nil {
		return err
	}
	middleware.TrackNoteOperation("delete")
	return nil
}

// SearchNotes treats an empty query as "match nothing"; returning the whole
// store for a blank search box caused confusing frontends in the past.
func (svc *NoteService) SearchNotes(ctx context.Context, query string) ([]*model.Note, error) {
	if strings.TrimSpace(query) == "" {
		return []*model.Note{}, nil
	}
	return svc.Store.Search(ctx, query)
}

func (svc *NoteService) ReorderNotes(ctx context.Context, ids []int64) error {
	if err := svc.Store.Reorder(ctx, ids); err != nil {
		return err
	}
	middleware.TrackNoteOperation("reorder")
	return nil
}

func coerceEvent(date, timeOfDay string) (string, string, error) {
	if !utils.ValidateEventDate(date) {
		return "", "", fmt.Errorf("%w: invalid event_date format", repository.ErrValidation)
	}
	normalized, ok := utils.NormalizeEventTime(timeOfDay)
	if !ok {
		return "", "", fmt.Errorf("%w: invalid event_time format", repository.ErrValidation)
	}
	return date, normalized, nil
}
