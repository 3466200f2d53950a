package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/engine"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"
	"github.com/fairsheet/gridcalc-go/pkg/gridcalc/output"
)

// request is one client message of the session protocol.
type request struct {
	Op      string `json:"op"`
	Cell    string `json:"cell,omitempty"`
	Formula string `json:"formula,omitempty"`
	Value   string `json:"value,omitempty"`
	Name    string `json:"name,omitempty"`
}

// response answers one request.
type response struct {
	OK           bool           `json:"ok"`
	Error        string         `json:"error,omitempty"`
	Result       *output.Result `json:"result,omitempty"`
	Affected     []string       `json:"affected,omitempty"`
	Sheets       []string       `json:"sheets,omitempty"`
	Functions    []string       `json:"functions,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Dependents   []string       `json:"dependents,omitempty"`
}

// server owns one engine shared by all WebSocket sessions. The engine is
// single-owner state, so every operation runs under the mutex.
type server struct {
	mu  sync.Mutex
	eng *engine.Engine
	log *slog.Logger
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := openEngine(args[0])
	if err != nil {
		return err
	}
	srv := &server{
		eng: eng,
		log: slog.Default().With(slog.String("component", "serve")),
	}
	srv.log.Info("listening", slog.String("addr", listenAddr))
	return http.ListenAndServe(listenAddr, srv)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("handshake failed", slog.String("error", err.Error()))
		return
	}
	defer c.CloseNow()
	s.log.Debug("session opened", slog.String("remote", r.RemoteAddr))

	ctx := r.Context()
	for {
		var req request
		if err := wsjson.Read(ctx, c, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				s.log.Debug("session closed", slog.String("error", err.Error()))
			}
			return
		}
		if err := wsjson.Write(ctx, c, s.handle(req)); err != nil {
			return
		}
	}
}

func (s *server) handle(req request) response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Op {
	case "eval":
		row, col := 0, 0
		if req.Cell != "" {
			coord, err := s.bindCell(req.Cell)
			if err != nil {
				return fail(err)
			}
			row, col = coord.Row, coord.Col
		}
		r := output.NewResult(s.eng.Evaluate(req.Formula, row, col))
		return response{OK: true, Result: &r}

	case "get":
		coord, err := s.bindCell(req.Cell)
		if err != nil {
			return fail(err)
		}
		r := output.NewResult(s.eng.CellValue(coord.Row, coord.Col))
		return response{OK: true, Result: &r}

	case "set":
		coord, err := s.bindCell(req.Cell)
		if err != nil {
			return fail(err)
		}
		affected := s.eng.SetCell(coord.Row, coord.Col, req.Value)
		return response{OK: true, Affected: coordStrings(affected)}

	case "clear":
		coord, err := s.bindCell(req.Cell)
		if err != nil {
			return fail(err)
		}
		affected := s.eng.ClearCell(coord.Row, coord.Col)
		return response{OK: true, Affected: coordStrings(affected)}

	case "preview":
		coord, err := s.bindCell(req.Cell)
		if err != nil {
			return fail(err)
		}
		return s.preview(coord, req.Value)

	case "deps":
		coord, err := s.bindCell(req.Cell)
		if err != nil {
			return fail(err)
		}
		coord.Sheet = s.eng.CurrentSheet()
		return response{
			OK:           true,
			Dependencies: coordStrings(s.eng.Dependencies(coord)),
			Dependents:   coordStrings(s.eng.Dependents(coord)),
		}

	case "sheet":
		if err := s.eng.SetCurrentSheet(req.Name); err != nil {
			return fail(err)
		}
		return response{OK: true}

	case "sheets":
		return response{OK: true, Sheets: s.eng.Workbook().SheetNames()}

	case "functions":
		return response{OK: true, Functions: s.eng.Functions()}

	case "rebuild":
		s.eng.RebuildAll()
		return response{OK: true}

	default:
		return fail(fmt.Errorf("unknown op: %s", req.Op))
	}
}

// preview trials an edit on a clone of the workbook, so a client can show
// the would-be result and affected cells while the user is still typing.
// The engine's own workbook is untouched.
func (s *server) preview(coord models.Coordinate, raw string) response {
	clone, err := s.eng.Workbook().Clone()
	if err != nil {
		return fail(err)
	}
	opts := engineOptions()
	opts.CurrentSheet = s.eng.CurrentSheet()
	scratch := engine.New(clone, opts)
	scratch.RebuildAll()
	affected := scratch.SetCell(coord.Row, coord.Col, raw)
	r := output.NewResult(scratch.CellValue(coord.Row, coord.Col))
	return response{OK: true, Result: &r, Affected: coordStrings(affected)}
}

// bindCell decodes an address and switches the engine to its sheet when it
// names one, so the operation runs in that sheet's context.
func (s *server) bindCell(text string) (models.Coordinate, error) {
	coord, err := parseCellAddr(text)
	if err != nil {
		return models.Coordinate{}, err
	}
	if coord.Sheet != "" {
		if err := s.eng.SetCurrentSheet(coord.Sheet); err != nil {
			return models.Coordinate{}, err
		}
	}
	return coord, nil
}

func fail(err error) response {
	return response{OK: false, Error: err.Error()}
}
