package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"travel-agent/internal/domain"
	"travel-agent/internal/logger"
	"travel-agent/internal/repository"
)

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
	ChatJSON(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

type FlightSearcher interface {
	SearchFlights(ctx context.Context, origin, destination, departureDate string) ([]domain.FlightOffer, error)
}

type HotelSearcher interface {
	SearchHotels(ctx context.Context, cityName, checkIn, checkOut string) ([]domain.HotelOffer, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	GetTask(ctx context.Context, id string) (domain.Task, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// TravelService turns one free-text message into a task that ends either
// with formatted search results or a conversational reply.
type TravelService struct {
	llm           LLMClient
	flights       FlightSearcher
	hotels        HotelSearcher
	tasks         TaskStore
	model         string
	maxMessageLen int
}

type Request struct {
	Message string
	// TaskID is optional; a new ID is generated when empty.
	TaskID string
}

type Reply struct {
	TaskID  string
	Message string
}

// NewTravelService wires the service. tasks may be nil, in which case
// nothing is recorded and GetTask always reports not found. A
// maxMessageLen of zero or less disables the length check.
func NewTravelService(llm LLMClient, flights FlightSearcher, hotels HotelSearcher, tasks TaskStore, model string, maxMessageLen int) (*TravelService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if flights == nil {
		return nil, errors.New("usecase: flight searcher must not be nil")
	}
	if hotels == nil {
		return nil, errors.New("usecase: hotel searcher must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	return &TravelService{
		llm:           llm,
		flights:       flights,
		hotels:        hotels,
		tasks:         tasks,
		model:         model,
		maxMessageLen: maxMessageLen,
	}, nil
}

// Handle processes in asynchronously. The returned channel yields a working
// event, then exactly one terminal event (completed or failed), then closes.
// It is buffered so the producer never blocks on a consumer that stops early.
func (s *TravelService) Handle(ctx context.Context, in Request) <-chan domain.TaskEvent {
	taskID := strings.TrimSpace(in.TaskID)
	if taskID == "" {
		taskID = newUUID()
	}
	events := make(chan domain.TaskEvent, 2)

	go func() {
		defer close(events)
		log := logger.FromContext(ctx).With("taskId", taskID)

		events <- domain.TaskEvent{TaskID: taskID, State: domain.TaskWorking}

		message := strings.TrimSpace(in.Message)
		task := repository.NewTask(taskID, message)
		if err := s.validate(message); err != nil {
			ev := failedEvent(taskID, err)
			task.State, task.Error = domain.TaskFailed, ev.Error
			_, _ = s.create(ctx, log, task)
			events <- ev
			return
		}

		// Only a task this request created may be updated; a reused ID
		// never touches the stored record.
		created, err := s.create(ctx, log, task)
		if err != nil {
			events <- failedEvent(taskID, err)
			return
		}

		text, err := s.respond(ctx, message)
		task.UpdatedAt = time.Now().UTC()
		if err != nil {
			log.Warn("task failed", "err", err)
			ev := failedEvent(taskID, err)
			task.State, task.Error = domain.TaskFailed, ev.Error
			if created {
				s.update(ctx, log, task)
			}
			events <- ev
			return
		}

		task.State, task.Output = domain.TaskCompleted, text
		if created {
			s.update(ctx, log, task)
		}
		events <- domain.TaskEvent{TaskID: taskID, State: domain.TaskCompleted, Message: text}
	}()

	return events
}

// Reply runs Handle to completion for buffered transports.
func (s *TravelService) Reply(ctx context.Context, in Request) (Reply, error) {
	var last domain.TaskEvent
	for ev := range s.Handle(ctx, in) {
		last = ev
	}
	if last.State == domain.TaskFailed {
		return Reply{TaskID: last.TaskID}, last.Err
	}
	if last.State != domain.TaskCompleted {
		return Reply{TaskID: last.TaskID}, newError(ErrorInternal, "no_terminal_event", nil)
	}
	return Reply{TaskID: last.TaskID, Message: last.Message}, nil
}

// GetTask returns a previously handled task.
func (s *TravelService) GetTask(ctx context.Context, id string) (domain.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Task{}, newError(ErrorInvalidInput, "empty_task_id", errors.New("task id required"))
	}
	if s.tasks == nil {
		return domain.Task{}, newError(ErrorNotFound, "task_not_found", errors.New("task not found"))
	}
	task, err := s.tasks.GetTask(ctx, id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return domain.Task{}, newError(ErrorNotFound, "task_not_found", errors.New("task not found"))
	}
	if err != nil {
		return domain.Task{}, newError(ErrorInternal, "task_read_error", err)
	}
	return task, nil
}

// FindFlights runs the flight search alone, mapping failures to *Error.
func (s *TravelService) FindFlights(ctx context.Context, origin, destination, departureDate string) ([]domain.FlightOffer, error) {
	flights, err := s.flights.SearchFlights(ctx, origin, destination, departureDate)
	if err != nil {
		return nil, searchError(err)
	}
	return flights, nil
}

// FindHotels runs the hotel search alone, mapping failures to *Error.
func (s *TravelService) FindHotels(ctx context.Context, cityName, checkIn, checkOut string) ([]domain.HotelOffer, error) {
	hotels, err := s.hotels.SearchHotels(ctx, cityName, checkIn, checkOut)
	if err != nil {
		return nil, searchError(err)
	}
	return hotels, nil
}

func (s *TravelService) validate(message string) error {
	if message == "" {
		return newError(ErrorInvalidInput, "empty_message", errors.New("message content required"))
	}
	if s.maxMessageLen > 0 && len(message) > s.maxMessageLen {
		return newError(ErrorInvalidInput, "message_too_long", errors.New("message too long"))
	}
	return nil
}

func (s *TravelService) respond(ctx context.Context, message string) (string, error) {
	intent := s.extractIntent(ctx, message)
	kind := route(intent)
	logger.FromContext(ctx).Info("routing message", "intent", intent.Intent, "route", kind.String())

	switch kind {
	case routeFlights:
		flights, err := s.FindFlights(ctx, intent.Origin, intent.Destination, intent.DepartureDate)
		if err != nil {
			return "", err
		}
		return formatFlights(intent, flights), nil

	case routeHotels:
		hotels, err := s.FindHotels(ctx, intent.Destination, intent.CheckIn, intent.CheckOut)
		if err != nil {
			return "", err
		}
		return formatHotels(intent, hotels), nil

	case routeBoth:
		var (
			flights []domain.FlightOffer
			hotels  []domain.HotelOffer
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			flights, err = s.FindFlights(gctx, intent.Origin, intent.Destination, intent.DepartureDate)
			return err
		})
		g.Go(func() error {
			var err error
			hotels, err = s.FindHotels(gctx, intent.Destination, intent.CheckIn, intent.CheckOut)
			return err
		})
		if err := g.Wait(); err != nil {
			return "", err
		}
		return formatTrip(intent, flights, hotels), nil

	default:
		return s.chat(ctx, message)
	}
}

// extractIntent never fails: any error degrades to general chat.
func (s *TravelService) extractIntent(ctx context.Context, message string) domain.TravelIntent {
	fallback := domain.TravelIntent{Intent: domain.IntentGeneralChat}

	raw, err := s.llm.ChatJSON(ctx, s.model, buildExtractionMessages(message))
	if err != nil {
		logger.FromContext(ctx).Warn("intent extraction failed", "err", err)
		return fallback
	}
	intent, err := parseIntent(raw)
	if err != nil {
		logger.FromContext(ctx).Warn("intent extraction returned malformed JSON", "err", err)
		return fallback
	}
	return intent
}

func (s *TravelService) chat(ctx context.Context, message string) (string, error) {
	answer, err := s.llm.Chat(ctx, s.model, buildChatMessages(message))
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return "", newError(ErrorRateLimited, "llm_rate_limited", err)
		}
		return "", newError(ErrorUpstream, "llm_error", err)
	}
	if strings.TrimSpace(answer) == "" {
		return noResponse, nil
	}
	return answer, nil
}

// create stores a new task and reports whether it was written. Only a
// taken ID is an error; other store failures are logged.
func (s *TravelService) create(ctx context.Context, log *slog.Logger, task domain.Task) (bool, error) {
	if s.tasks == nil {
		return false, nil
	}
	err := s.tasks.CreateTask(context.WithoutCancel(ctx), task)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrTaskExists):
		return false, newError(ErrorInvalidInput, "task_exists", errors.New("task already exists"))
	default:
		log.Warn("task store write failed", "state", task.State, "err", err)
		return false, nil
	}
}

func (s *TravelService) update(ctx context.Context, log *slog.Logger, task domain.Task) {
	// The request's own cancellation must not lose the terminal state.
	if err := s.tasks.UpdateTask(context.WithoutCancel(ctx), task); err != nil {
		log.Warn("task store write failed", "state", task.State, "err", err)
	}
}

func searchError(err error) *Error {
	var authErr *domain.AuthError
	switch {
	case errors.As(err, &authErr):
		return newError(ErrorAuth, "provider_auth_error", err)
	case errors.Is(err, domain.ErrCityNotFound):
		return newError(ErrorSearch, "city_not_found", err)
	}
	var searchErr *domain.SearchError
	if errors.As(err, &searchErr) {
		return newError(ErrorSearch, searchErr.Provider+"_search_error", err)
	}
	return newError(ErrorSearch, "search_error", err)
}

func failedEvent(taskID string, err error) domain.TaskEvent {
	var ucErr *Error
	if !errors.As(err, &ucErr) {
		ucErr = newError(ErrorInternal, "unexpected_error", err)
	}
	return domain.TaskEvent{TaskID: taskID, State: domain.TaskFailed, Error: ucErr.Message(), Err: ucErr}
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
