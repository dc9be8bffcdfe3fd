package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/frequency"
	"github.com/WangWilly/tweetsim/pkgs/similarity"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

////////////////////////////////////////////////////////////////////////////////

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTweets(w http.ResponseWriter, r *http.Request) {
	skip, err := intParam(r, "skip", 0)
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	limit, err := intParam(r, "limit", DEFAULT_LIMIT)
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if skip < 0 || limit < 0 || limit > MAX_LIMIT {
		respondBadRequest(w, fmt.Errorf("skip must be >= 0 and limit within [0, %d]", MAX_LIMIT))
		return
	}

	tweets, err := s.tweetRepo.List(r.Context(), s.db, skip, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := s.tweetRepo.Count(r.Context(), s.db)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TweetsResponse{Total: total, Tweets: toTweetResponses(tweets)})
}

func (s *Server) handleTweetsByDate(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start_date")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	end, err := dateParam(r, "end_date")
	if err != nil {
		respondBadRequest(w, err)
		return
	}
	if end.Before(start) {
		respondBadRequest(w, errors.New("end_date is before start_date"))
		return
	}

	tweets, err := s.tweetRepo.ListByDate(r.Context(), s.db, start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TweetsResponse{Tweets: toTweetResponses(tweets)})
}

func (s *Server) handleTweetsByKeyword(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		respondBadRequest(w, errors.New("keyword is required"))
		return
	}

	tweets, err := s.tweetRepo.ListByKeyword(r.Context(), s.db, keyword)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TweetsResponse{Tweets: toTweetResponses(tweets)})
}

func (s *Server) handleGetTweet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondBadRequest(w, errors.New("invalid tweet id"))
		return
	}

	tweet, err := s.tweetRepo.GetById(r.Context(), s.db, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTweetResponse(tweet))
}

////////////////////////////////////////////////////////////////////////////////

func (s *Server) handleSimilarTweets(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tweet_id")
	if raw == "" {
		respondBadRequest(w, errors.New("tweet_id is required"))
		return
	}
	tweetID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondBadRequest(w, errors.New("invalid tweet_id"))
		return
	}
	topN, err := intParam(r, "top_n", DEFAULT_TOP_N)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	matches, err := s.engine.TopKSimilar(r.Context(), tweetID, topN)
	if err != nil {
		respondError(w, r, err)
		return
	}

	query, err := s.tweetRepo.GetById(r.Context(), s.db, tweetID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := SimilarTweetsResponse{
		Query:   toTweetResponse(query),
		Results: make([]SimilarTweet, 0, len(matches)),
	}
	for _, m := range matches {
		tweet, err := s.tweetRepo.GetById(r.Context(), s.db, m.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		resp.Results = append(resp.Results, SimilarTweet{Score: m.Score, Tweet: toTweetResponse(tweet)})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMostFrequent(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", DEFAULT_TOP_N)
	if err != nil {
		respondBadRequest(w, err)
		return
	}

	texts, err := s.tweetRepo.ListTexts(r.Context(), s.db)
	if err != nil {
		respondError(w, r, err)
		return
	}

	words, err := frequency.Rank(texts, n)
	if errors.Is(err, frequency.ErrRankTooLarge) {
		respondBadRequest(w, err)
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MostFrequentResponse{Words: words})
}

// handleIngest runs a JSON-lines feed posted as the request body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MAX_FEED_BYTES)
	defer body.Close()

	report, err := s.ingester.Run(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Kind: similarity.KIND_INVALID_ARGUMENT})
			return
		}
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toIngestResponse(report))
}

////////////////////////////////////////////////////////////////////////////////

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func dateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(DATE_LAYOUT, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %q, want YYYY-MM-DD", name, raw)
	}
	return t, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

func respondBadRequest(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: similarity.KIND_INVALID_ARGUMENT})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := similarity.Kind(err)

	status := http.StatusInternalServerError
	switch kind {
	case similarity.KIND_NOT_FOUND:
		status = http.StatusNotFound
	case similarity.KIND_INVALID_ARGUMENT:
		status = http.StatusBadRequest
	case similarity.KIND_INTEGRITY:
		status = http.StatusUnprocessableEntity
	case similarity.KIND_STORAGE:
		status = http.StatusServiceUnavailable
	}

	entry := log.WithFields(log.Fields{
		"caller": "respondError",
		"path":   r.URL.Path,
		"kind":   kind,
		"status": status,
	}).WithError(err)
	if status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	respondJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}
