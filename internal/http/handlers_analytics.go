package http

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryDate(q, "start_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(q, "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cache.serve(w, r, func(ctx context.Context) (any, error) {
		return s.svc.Analytics.Overview(ctx, start, end)
	})
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := queryType(q, core.Expense)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := queryDate(q, "start_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := queryDate(q, "end_date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cache.serve(w, r, func(ctx context.Context) (any, error) {
		rows, err := s.svc.Analytics.ByCategory(ctx, t, start, end)
		return nonNil(rows), err
	})
}

// windowParams reads days and end for the trend endpoints. Range checks are
// left to the analytics service.
func windowParams(r *http.Request) (int, *core.Date, error) {
	q := r.URL.Query()
	days, err := queryInt(q, "days", 0)
	if err != nil {
		return 0, nil, err
	}
	end, err := queryDate(q, "end")
	if err != nil {
		return 0, nil, err
	}
	return days, end, nil
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	days, end, err := windowParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cache.serve(w, r, func(ctx context.Context) (any, error) {
		points, err := s.svc.Analytics.Trend(ctx, days, end)
		return nonNil(points), err
	})
}

func (s *Server) handleDailySpending(w http.ResponseWriter, r *http.Request) {
	days, end, err := windowParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.cache.serve(w, r, func(ctx context.Context) (any, error) {
		points, err := s.svc.Analytics.DailySpending(ctx, days, end)
		return nonNil(points), err
	})
}
