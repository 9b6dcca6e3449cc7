package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/boardhand/client"
)

const maxBodySize = 64 << 10

// decodeJSON reads a bounded JSON body. It writes the error response itself
// and returns false when the body is unusable.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return v, false
	}
	if len(data) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "request body is required")
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return v, false
	}
	return v, true
}

func boardID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "boardID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "board id must be an integer")
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter, id int) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Board with ID %d not found.", id))
}

// RegisterUser handles POST /register-user.
func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[client.UserCreate](w, r)
	if !ok {
		return
	}
	u, err := s.AddUser(req.Username, req.Password, req.Role)
	if errors.Is(err, errUsernameTaken) {
		writeError(w, http.StatusBadRequest, "Username already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ListBoards handles GET /api/boards.
func (s *Server) ListBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sortedBoards())
}

// CreateBoard handles POST /api/boards/.
func (s *Server) CreateBoard(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[client.BoardCreate](w, r)
	if !ok {
		return
	}
	if req == (client.BoardCreate{}) {
		writeError(w, http.StatusBadRequest, "No data provided to create a board.")
		return
	}
	b := s.AddBoard(req)
	s.logger.Info("mockapi: board created", "board_id", b.ID)
	writeJSON(w, http.StatusCreated, b)
}

// GetBoard handles GET /api/boards/{boardID}.
func (s *Server) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	b, found := s.boards[id]
	s.mu.RUnlock()
	if !found {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// UpdateBoard handles PUT /api/boards/{boardID}.
func (s *Server) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	req, ok := decodeJSON[client.BoardUpdate](w, r)
	if !ok {
		return
	}
	if req == (client.BoardUpdate{}) {
		writeError(w, http.StatusBadRequest, "No fields provided for update.")
		return
	}

	s.mu.Lock()
	b, found := s.boards[id]
	if found {
		b = applyUpdate(b, req)
		s.boards[id] = b
	}
	s.mu.Unlock()
	if !found {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBoard handles DELETE /api/boards/{boardID}.
func (s *Server) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := boardID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	_, found := s.boards[id]
	delete(s.boards, id)
	s.mu.Unlock()
	if !found {
		notFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QualityMetrics handles GET /api/quality-metrics.
func (s *Server) QualityMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := time.Parse(time.DateOnly, q.Get("selected_date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "selected_date must be YYYY-MM-DD")
		return
	}
	start, err := clockOn(day, q.Get("start_time"), "00:00:00")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "start_time must be HH:MM:SS")
		return
	}
	end, err := clockOn(day, q.Get("end_time"), "23:59:59")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "end_time must be HH:MM:SS")
		return
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "Finish time must be after start time.")
		return
	}
	writeJSON(w, http.StatusOK, s.metrics(day, start, end))
}

func clockOn(day time.Time, value, fallback string) (time.Time, error) {
	if value == "" {
		value = fallback
	}
	t, err := time.Parse(time.TimeOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (s *Server) metrics(day, start, end time.Time) client.QualityMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := client.QualityMetrics{
		Date:          day.Format(time.DateOnly),
		DefectDetails: map[string]int{},
		RefStats:      []client.RefStat{},
		RefPriceStats: []client.RefPriceStat{},
	}

	type refKey struct {
		ref   string
		price float64
		set   bool
	}
	counts := map[refKey]*client.RefPriceStat{}
	for _, res := range s.results {
		if !within(res.at.UTC(), start, end) {
			continue
		}
		m.TotalQuantity++
		if res.passed {
			m.GoodQuantity++
		} else {
			m.BadQuantity++
		}
		b, ok := s.boards[res.boardID]
		if !ok || b.RefAsteel == "" {
			continue
		}
		k := refKey{ref: b.RefAsteel}
		if b.Prix != nil {
			k.price, k.set = *b.Prix, true
		}
		st, ok := counts[k]
		if !ok {
			st = &client.RefPriceStat{RefAsteel: b.RefAsteel, UnitPrice: b.Prix}
			counts[k] = st
		}
		if res.passed {
			st.GoodCount++
		} else {
			st.BadCount++
		}
	}

	for _, iv := range s.interventions {
		if within(iv.at.UTC(), start, end) {
			m.DefectDetails[iv.defect]++
		}
	}

	byRef := map[string]*client.RefStat{}
	for _, st := range counts {
		if st.UnitPrice != nil {
			total := float64(st.GoodCount) * *st.UnitPrice
			st.TotalPrice = &total
		}
		m.RefPriceStats = append(m.RefPriceStats, *st)
		rs, ok := byRef[st.RefAsteel]
		if !ok {
			rs = &client.RefStat{RefAsteel: st.RefAsteel}
			byRef[st.RefAsteel] = rs
		}
		rs.GoodCount += st.GoodCount
		rs.BadCount += st.BadCount
	}
	for _, rs := range byRef {
		m.RefStats = append(m.RefStats, *rs)
	}
	sort.Slice(m.RefStats, func(i, j int) bool { return m.RefStats[i].RefAsteel < m.RefStats[j].RefAsteel })
	sort.Slice(m.RefPriceStats, func(i, j int) bool { return m.RefPriceStats[i].RefAsteel < m.RefPriceStats[j].RefAsteel })
	return m
}

func boardFromCreate(id int, in client.BoardCreate) client.Board {
	return client.Board{
		ID:           id,
		RefAsteel:    in.RefAsteelFlash,
		RefClient:    in.RefClients,
		Designation:  in.Designation,
		Client:       in.Client,
		BoardVersion: in.BoardVer,
		CodeIndus:    in.CodeIndus,
		Indice:       in.Indice,
		Software:     in.Software,
		SoftwareVer:  in.SoftwareVer,
		IsValid:      in.Valide,
		IDAssembly:   in.IDAssembly,
		IDProcess:    in.IDProcess,
		QuantCondit:  in.QuantCondit,
		IDFamille:    in.IDFamille,
		Prix:         in.Prix,
	}
}

func applyUpdate(b client.Board, u client.BoardUpdate) client.Board {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&b.RefAsteel, u.RefAsteelFlash)
	setString(&b.RefClient, u.RefClients)
	setString(&b.Designation, u.Designation)
	setString(&b.Client, u.Client)
	setString(&b.BoardVersion, u.BoardVer)
	setString(&b.CodeIndus, u.CodeIndus)
	setString(&b.Indice, u.Indice)
	setString(&b.Software, u.Software)
	setString(&b.SoftwareVer, u.SoftwareVer)
	if u.Valide != nil {
		b.IsValid = *u.Valide
	}
	if u.IDAssembly != nil {
		b.IDAssembly = u.IDAssembly
	}
	if u.IDProcess != nil {
		b.IDProcess = u.IDProcess
	}
	if u.QuantCondit != nil {
		b.QuantCondit = u.QuantCondit
	}
	if u.IDFamille != nil {
		b.IDFamille = u.IDFamille
	}
	if u.Prix != nil {
		b.Prix = u.Prix
	}
	return b
}
