package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/canvasql/pkg/graph"
	"github.com/leapstack-labs/canvasql/pkg/sqlgen"
)

type sqlResponse struct {
	SQL     string `json:"sql"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeSQL(w http.ResponseWriter) {
	res := s.session.Validate()
	writeJSON(w, http.StatusOK, sqlResponse{
		SQL:     s.session.SQL(),
		Valid:   res.OK,
		Message: res.Message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return v, false
	}
	return v, true
}

// mutation runs a session mutation and answers with the regenerated SQL.
// Structural rejections are 400s; DML degradation text is still a 200.
func (s *Server) mutation(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeSQL(w)
}

func (s *Server) handleGetSQL(w http.ResponseWriter, _ *http.Request) {
	s.writeSQL(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		SQL string `json:"sql"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.ImportSQL(req.SQL))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.session.Reset()
	s.writeSQL(w)
}

type runResponse struct {
	RunID        string     `json:"run_id,omitempty"`
	Columns      []string   `json:"columns,omitempty"`
	Rows         [][]string `json:"rows,omitempty"`
	RowsAffected int64      `json:"rows_affected"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.exec == nil {
		writeError(w, http.StatusServiceUnavailable, errNoExecutor)
		return
	}
	sqlText := s.session.SQL()

	var runID string
	if s.store != nil {
		id, err := s.store.StartRun(r.Context(), s.session.Mode().String(), sqlText)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		runID = id
	}

	res, err := s.exec.Run(r.Context(), sqlText)
	if err != nil {
		if s.store != nil {
			_ = s.store.FinishRun(r.Context(), runID, 0, err.Error())
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.store != nil {
		count := res.RowsAffected
		if res.IsQuery() {
			count = int64(len(res.Rows))
		}
		_ = s.store.FinishRun(r.Context(), runID, count, "")
	}
	writeJSON(w, http.StatusOK, runResponse{
		RunID:        runID,
		Columns:      res.Columns,
		Rows:         res.Rows,
		RowsAffected: res.RowsAffected,
	})
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		ID      string   `json:"id"`
		Kind    string   `json:"kind"`
		Columns []string `json:"columns"`
	}](w, r)
	if !ok {
		return
	}
	var kind graph.NodeKind
	switch req.Kind {
	case "", "table":
		kind = graph.KindTable
	case "cte":
		kind = graph.KindCTE
	case "subquery":
		kind = graph.KindSubquery
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown node kind %q", req.Kind))
		return
	}
	s.mutation(w, s.session.AddNode(req.ID, kind, req.Columns))
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, s.session.RemoveNode(chi.URLParam(r, "id")))
}

func (s *Server) handleSelectColumn(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Column string `json:"column"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.SelectColumn(chi.URLParam(r, "id"), req.Column))
}

func (s *Server) handleDeselectColumn(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Column string `json:"column"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.DeselectColumn(chi.URLParam(r, "id"), req.Column))
}

func (s *Server) handleAddJoin(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Left  string `json:"left"`
		Right string `json:"right"`
		Type  string `json:"type"`
		On    string `json:"on"`
	}](w, r)
	if !ok {
		return
	}
	var jt graph.JoinType
	switch req.Type {
	case "", "INNER":
		jt = graph.JoinInner
	case "LEFT":
		jt = graph.JoinLeft
	case "RIGHT":
		jt = graph.JoinRight
	case "FULL":
		jt = graph.JoinFull
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown join type %q", req.Type))
		return
	}
	s.mutation(w, s.session.AddJoinEdge(req.Left, req.Right, jt, req.On))
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		ID string `json:"id"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.MarkDMLTarget(req.ID))
}

func (s *Server) handleClearTarget(w http.ResponseWriter, _ *http.Request) {
	s.mutation(w, s.session.ClearDMLTarget())
}

func (s *Server) handleAddMapping(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddMappingEdge(req.Source, req.Target))
}

type predicateRequest struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

func (s *Server) handleAddWhere(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[predicateRequest](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddPredicate(sqlgen.ClauseWhere, req.Column, req.Operator, req.Value))
}

func (s *Server) handleAddHaving(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[predicateRequest](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddPredicate(sqlgen.ClauseHaving, req.Column, req.Operator, req.Value))
}

func (s *Server) handleAddGroupBy(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Column string `json:"column"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddGroupBy(req.Column))
}

func (s *Server) handleAddAggregate(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Func   string `json:"func"`
		Column string `json:"column"`
		Alias  string `json:"alias"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddAggregate(req.Func, req.Column, req.Alias))
}

func (s *Server) handleAddOrderBy(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Column    string `json:"column"`
		Direction string `json:"direction"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddOrderBy(req.Column, req.Direction))
}

func (s *Server) handleAddDerived(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Expression string `json:"expression"`
		Alias      string `json:"alias"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddDerived(req.Expression, req.Alias))
}

func (s *Server) handleAddCTE(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Name string `json:"name"`
		Body string `json:"body"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.AddCTE(req.Name, req.Body))
}

func (s *Server) handleSetCombine(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Operator string `json:"operator"`
		Query    string `json:"query"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.SetCombine(req.Operator, req.Query))
}

func (s *Server) handleClearCombine(w http.ResponseWriter, _ *http.Request) {
	s.mutation(w, s.session.SetCombine("", ""))
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Value int `json:"value"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.SetLimit(req.Value))
}

func (s *Server) handleSetOffset(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Value int `json:"value"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.SetOffset(req.Value))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Mode string `json:"mode"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.SetOperationMode(sqlgen.ParseMode(req.Mode)))
}

func (s *Server) handleSetLinkedServers(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[struct {
		Servers map[string]string `json:"servers"`
	}](w, r)
	if !ok {
		return
	}
	s.mutation(w, s.session.SetLinkedServerMap(req.Servers))
}
