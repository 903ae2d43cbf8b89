// Package httpapi exposes the REST handlers and translates HTTP requests into
// voting service calls.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/voting"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/metrics"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/ratelimit"
)

// API bundles the HTTP handlers bound to the voting service.
type API struct {
	service      domain.VotingService
	logger       *slog.Logger
	validate     *validator.Validate
	resultsToken string
}

func New(service domain.VotingService, logger *slog.Logger, resultsToken string) *API {
	return &API{
		service:      service,
		logger:       logger,
		validate:     validator.New(),
		resultsToken: resultsToken,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /events", a.listEvents)
	mux.HandleFunc("POST /events", a.createEvent)
	mux.HandleFunc("POST /events/{id}/ballots/ranked", a.castRanked)
	mux.HandleFunc("POST /events/{id}/ballots/approval", a.castApproval)
	mux.HandleFunc("POST /events/{id}/ballots/rating", a.castRating)
	mux.HandleFunc("GET /events/{id}/results", a.getResults)
	mux.HandleFunc("GET /events/{id}/leaderboard", a.getLeaderboard)
	mux.HandleFunc("GET /events/{id}/live", a.getLiveCounts)
	mux.HandleFunc("GET /events/{id}/voters/{user}/status", a.getVoterStatus)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type eventSetupRequest struct {
	Name           string    `json:"name" validate:"required"`
	VotingOpensAt  time.Time `json:"voting_opens_at"`
	VotingClosesAt time.Time `json:"voting_closes_at" validate:"required"`
	VotingType     struct {
		Name          string          `json:"name"`
		Category      string          `json:"category" validate:"required,oneof=ranked approval rating weighted cumulative"`
		PointsPerVote decimal.Decimal `json:"points_per_vote"`
		MaxSelections int             `json:"max_selections" validate:"min=0"`
		MinRating     float64         `json:"min_rating"`
		MaxRating     float64         `json:"max_rating"`
		Places        []struct {
			Place  int             `json:"place" validate:"min=1"`
			Points decimal.Decimal `json:"points"`
		} `json:"places" validate:"dive"`
	} `json:"voting_type"`
	DivisionTypes []struct {
		Code string `json:"code" validate:"required"`
		Name string `json:"name" validate:"required"`
	} `json:"division_types" validate:"dive"`
	Divisions []struct {
		Code string `json:"code" validate:"required"`
		Type string `json:"type"`
	} `json:"divisions" validate:"dive"`
	Participants []struct {
		Name string `json:"name" validate:"required"`
	} `json:"participants" validate:"dive"`
	Entries []struct {
		Name            string `json:"name" validate:"required"`
		EntryNumber     int    `json:"entry_number" validate:"min=1"`
		DivisionCode    string `json:"division_code"`
		ParticipantName string `json:"participant_name"`
	} `json:"entries" validate:"required,min=1,dive"`
	VoterWeights []struct {
		UserID     string          `json:"user_id" validate:"required"`
		Multiplier decimal.Decimal `json:"multiplier"`
	} `json:"voter_weights" validate:"dive"`
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req eventSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	setup := domain.EventSetup{
		Event: domain.Event{
			Name:           req.Name,
			VotingOpensAt:  req.VotingOpensAt,
			VotingClosesAt: req.VotingClosesAt,
		},
		VotingType: domain.VotingType{
			Name:          req.VotingType.Name,
			Category:      domain.VotingCategory(req.VotingType.Category),
			PointsPerVote: req.VotingType.PointsPerVote,
			MaxSelections: req.VotingType.MaxSelections,
			MinRating:     req.VotingType.MinRating,
			MaxRating:     req.VotingType.MaxRating,
		},
	}
	for _, p := range req.VotingType.Places {
		setup.VotingType.Places = append(setup.VotingType.Places, domain.PlaceConfig{Place: p.Place, Points: p.Points})
	}
	for _, dt := range req.DivisionTypes {
		setup.DivisionTypes = append(setup.DivisionTypes, domain.DivisionType{Code: dt.Code, Name: dt.Name})
	}
	for _, d := range req.Divisions {
		setup.Divisions = append(setup.Divisions, domain.Division{Code: d.Code, Type: d.Type})
	}
	for _, p := range req.Participants {
		setup.Participants = append(setup.Participants, domain.Participant{Name: p.Name})
	}
	for _, e := range req.Entries {
		setup.Entries = append(setup.Entries, domain.EntrySetup{
			Name:            e.Name,
			EntryNumber:     e.EntryNumber,
			DivisionCode:    e.DivisionCode,
			ParticipantName: e.ParticipantName,
		})
	}
	for _, vw := range req.VoterWeights {
		setup.VoterWeights = append(setup.VoterWeights, domain.VoterWeight{UserID: vw.UserID, Multiplier: vw.Multiplier})
	}

	event, err := a.service.CreateEvent(r.Context(), setup)
	if err != nil {
		a.logger.Warn("event setup rejected", "err", err)
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.service.ListActiveEvents(r.Context())
	if err != nil {
		a.logger.Error("list events failed", "err", err)
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

type rankedBallotRequest struct {
	Votes domain.RankedBallot `json:"votes"`
}

func (a *API) castRanked(w http.ResponseWriter, r *http.Request) {
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}
	voter, ok := a.voter(w, r)
	if !ok {
		return
	}

	var req rankedBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveVoteCast("ranked", "invalid_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := a.service.CastRankedVotes(r.Context(), eventID, voter, req.Votes); err != nil {
		status := statusFromError(err)
		metrics.ObserveVoteCast("ranked", status)
		a.logger.Warn("ranked ballot rejected", "event", eventID, "voter", voter.UserID, "status", status, "err", err)
		a.respondError(w, err)
		return
	}

	metrics.ObserveVoteCast("ranked", "accepted")
	a.logger.Info("ranked ballot accepted", "event", eventID, "voter", voter.UserID)
	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

type approvalBallotRequest struct {
	EntryIDs []uint `json:"entry_ids"`
}

func (a *API) castApproval(w http.ResponseWriter, r *http.Request) {
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}
	voter, ok := a.voter(w, r)
	if !ok {
		return
	}

	var req approvalBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveVoteCast("approval", "invalid_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := a.service.CastApprovalVotes(r.Context(), eventID, voter, req.EntryIDs); err != nil {
		status := statusFromError(err)
		metrics.ObserveVoteCast("approval", status)
		a.logger.Warn("approval ballot rejected", "event", eventID, "voter", voter.UserID, "status", status, "err", err)
		a.respondError(w, err)
		return
	}

	metrics.ObserveVoteCast("approval", "accepted")
	a.logger.Info("approval ballot accepted", "event", eventID, "voter", voter.UserID)
	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

type ratingVoteRequest struct {
	EntryID uint    `json:"entry_id" validate:"min=1"`
	Rating  float64 `json:"rating"`
}

func (a *API) castRating(w http.ResponseWriter, r *http.Request) {
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}
	voter, ok := a.voter(w, r)
	if !ok {
		return
	}

	var req ratingVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveVoteCast("rating", "invalid_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		metrics.ObserveVoteCast("rating", "invalid_payload")
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := a.service.CastRatingVote(r.Context(), eventID, voter, req.EntryID, req.Rating); err != nil {
		status := statusFromError(err)
		metrics.ObserveVoteCast("rating", status)
		a.logger.Warn("rating vote rejected", "event", eventID, "voter", voter.UserID, "status", status, "err", err)
		a.respondError(w, err)
		return
	}

	metrics.ObserveVoteCast("rating", "accepted")
	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (a *API) getResults(w http.ResponseWriter, r *http.Request) {
	if !a.authorizeResults(w, r) {
		return
	}
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}

	var (
		board []domain.EntryResult
		err   error
	)
	if divisionParam := r.URL.Query().Get("division"); divisionParam != "" {
		divisionID, convErr := parseID(divisionParam)
		if convErr != nil {
			http.Error(w, "invalid division id", http.StatusBadRequest)
			return
		}
		board, err = a.service.GetResultsByDivision(r.Context(), eventID, divisionID)
	} else {
		board, err = a.service.GetResults(r.Context(), eventID)
	}
	if err != nil {
		a.logger.Error("results read failed", "event", eventID, "err", err)
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (a *API) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !a.authorizeResults(w, r) {
		return
	}
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var divisionID *uint
	if divisionParam := r.URL.Query().Get("division"); divisionParam != "" {
		id, err := parseID(divisionParam)
		if err != nil {
			http.Error(w, "invalid division id", http.StatusBadRequest)
			return
		}
		divisionID = &id
	}

	board, err := a.service.GetLeaderboard(r.Context(), eventID, divisionID, limit)
	if err != nil {
		a.logger.Error("leaderboard read failed", "event", eventID, "err", err)
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (a *API) getLiveCounts(w http.ResponseWriter, r *http.Request) {
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}
	counts, err := a.service.LiveCounts(r.Context(), eventID)
	if err != nil {
		a.logger.Error("live counts read failed", "event", eventID, "err", err)
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func (a *API) getVoterStatus(w http.ResponseWriter, r *http.Request) {
	eventID, ok := a.eventID(w, r)
	if !ok {
		return
	}
	userID := r.PathValue("user")
	if userID == "" {
		http.NotFound(w, r)
		return
	}

	var divisionID *uint
	if divisionParam := r.URL.Query().Get("division"); divisionParam != "" {
		id, err := parseID(divisionParam)
		if err != nil {
			http.Error(w, "invalid division id", http.StatusBadRequest)
			return
		}
		divisionID = &id
	}

	voted, err := a.service.HasUserVoted(r.Context(), userID, eventID, divisionID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"has_voted": voted})
}

func (a *API) eventID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// voter builds the explicit request identity passed into every casting call.
func (a *API) voter(w http.ResponseWriter, r *http.Request) (domain.Voter, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-Voter-ID"))
	if userID == "" {
		http.Error(w, "missing X-Voter-ID header", http.StatusBadRequest)
		return domain.Voter{}, false
	}

	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = strings.Split(r.RemoteAddr, ":")[0]
	} else {
		ip = strings.TrimSpace(strings.Split(ip, ",")[0])
	}

	return domain.Voter{
		UserID:    userID,
		IP:        ip,
		UserAgent: r.UserAgent(),
	}, true
}

// authorizeResults gates result reads behind a bearer token when one is
// configured, so partials can stay private until an event closes.
func (a *API) authorizeResults(w http.ResponseWriter, r *http.Request) bool {
	if a.resultsToken == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.resultsToken)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		if err == nil {
			err = strconv.ErrRange
		}
		return 0, err
	}
	return uint(id), nil
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (a *API) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, voting.ErrEventNotFound),
		errors.Is(err, voting.ErrEntryNotFound),
		errors.Is(err, voting.ErrDivisionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, voting.ErrVotingClosed),
		errors.Is(err, voting.ErrAlreadyVoted):
		status = http.StatusConflict
	case errors.Is(err, voting.ErrDuplicateSelection),
		errors.Is(err, voting.ErrInvalidRating),
		errors.Is(err, voting.ErrTooManySelections),
		errors.Is(err, voting.ErrInvalidEventSetup):
		status = http.StatusBadRequest
	case errors.Is(err, voting.ErrInvalidEntrySelection):
		var selErr *voting.SelectionValidationError
		if errors.As(err, &selErr) {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":              err.Error(),
				"invalid_selections": selErr.Invalid,
			})
			return
		}
		status = http.StatusBadRequest
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, voting.ErrInvalidVotingTypeConfig):
		// Admin configuration defect; the voter cannot fix this.
		a.logger.Error("voting type configuration defect", "err", err)
		status = http.StatusInternalServerError
	}

	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFromError(err error) string {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		return "rate_limited"
	case errors.Is(err, voting.ErrVotingClosed):
		return "closed"
	case errors.Is(err, voting.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, voting.ErrDuplicateSelection):
		return "duplicate_selection"
	case errors.Is(err, voting.ErrInvalidEntrySelection):
		return "invalid_selection"
	case errors.Is(err, voting.ErrInvalidRating):
		return "invalid_rating"
	case errors.Is(err, voting.ErrTooManySelections):
		return "too_many_selections"
	case errors.Is(err, voting.ErrEventNotFound), errors.Is(err, voting.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, voting.ErrInvalidVotingTypeConfig):
		return "misconfigured"
	default:
		return "error"
	}
}
