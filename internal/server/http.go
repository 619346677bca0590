// Package server exposes a subset of a session's operations as JSON over
// HTTP using gorilla/mux, generalizing the teacher's commit-log HTTP
// front-end (internal/server/http.go in the teacher repo) from a single
// process-wide log to a table of independently addressable edit sessions.
//
// For a JSON/HTTP Go server, each handler consists of 3 steps, same as the
// teacher's: unmarshal the request body, run the operation, marshal and
// write the result. Anything more belongs in middleware, not here.
package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/scholarsmate/omega-edit/internal/change"
	"github.com/scholarsmate/omega-edit/internal/omegaerr"
	"github.com/scholarsmate/omega-edit/internal/session"
)

// NewHTTPServer takes the address to listen on and returns an *http.Server
// wired to a fresh, empty session table.
func NewHTTPServer(addr string) *http.Server {
	srv := newHTTPServer()
	r := mux.NewRouter()

	r.HandleFunc("/sessions", srv.handleCreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}/insert", srv.handleInsert).Methods("POST")
	r.HandleFunc("/sessions/{id}/overwrite", srv.handleOverwrite).Methods("POST")
	r.HandleFunc("/sessions/{id}/delete", srv.handleDelete).Methods("POST")
	r.HandleFunc("/sessions/{id}/undo", srv.handleUndo).Methods("POST")
	r.HandleFunc("/sessions/{id}/redo", srv.handleRedo).Methods("POST")
	r.HandleFunc("/sessions/{id}/viewports/{vid}", srv.handleGetViewport).Methods("GET")
	r.HandleFunc("/sessions/{id}/save", srv.handleSave).Methods("POST")

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}

// httpServer holds the table of sessions this process is serving.
type httpServer struct {
	mu       sync.Mutex
	sessions map[uint64]*session.Session
	nextID   uint64
}

func newHTTPServer() *httpServer {
	return &httpServer{sessions: make(map[uint64]*session.Session)}
}

func (s *httpServer) getSession(r *http.Request) (*session.Session, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// writeError maps an omega-edit error's Kind to the status code it carries
// and writes it as the response, per spec.md section 7: the core never
// imports net/http, so this mapping lives only at the edge.
func writeError(w http.ResponseWriter, err error) {
	if oe, ok := err.(omegaerr.Error); ok {
		http.Error(w, oe.Error(), oe.StatusCode())
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// CreateSessionRequest opens a session over a server-side file path. An
// empty FilePath opens an in-memory-only session.
type CreateSessionRequest struct {
	FilePath            string `json:"file_path"`
	ViewportMaxCapacity int64  `json:"viewport_max_capacity"`
}

// CreateSessionResponse carries the new session's handle.
type CreateSessionResponse struct {
	ID uint64 `json:"id"`
}

func (s *httpServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var f *os.File
	if req.FilePath != "" {
		var err error
		f, err = os.Open(req.FilePath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	var opts []session.Option
	if req.ViewportMaxCapacity > 0 {
		opts = append(opts, session.WithViewportMaxCapacity(req.ViewportMaxCapacity))
	}
	sess, err := session.New(f, opts...)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.sessions[id] = sess
	s.mu.Unlock()

	writeJSON(w, CreateSessionResponse{ID: id})
}

// EditRequest is the body for insert/overwrite/delete: Data is base64 for
// insert/overwrite, ignored for delete; Length is the byte count to delete.
type EditRequest struct {
	Author string `json:"author"`
	Offset int64  `json:"offset"`
	Data   string `json:"data,omitempty"`
	Length int64  `json:"length,omitempty"`
}

// EditResponse reports the resulting change serial and the virtual file's
// new computed size.
type EditResponse struct {
	Serial           int64 `json:"serial"`
	ComputedFileSize int64 `json:"computed_file_size"`
}

func (s *httpServer) handleInsert(w http.ResponseWriter, r *http.Request) {
	s.handleEdit(w, r, func(sess *session.Session, a string, off int64, data []byte, _ int64) (int64, error) {
		c, err := sess.Insert(sess.CreateAuthor(a), off, data)
		if err != nil {
			return 0, err
		}
		return c.Serial(), nil
	})
}

func (s *httpServer) handleOverwrite(w http.ResponseWriter, r *http.Request) {
	s.handleEdit(w, r, func(sess *session.Session, a string, off int64, data []byte, _ int64) (int64, error) {
		c, err := sess.Overwrite(sess.CreateAuthor(a), off, data)
		if err != nil {
			return 0, err
		}
		return c.Serial(), nil
	})
}

func (s *httpServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.handleEdit(w, r, func(sess *session.Session, a string, off int64, _ []byte, length int64) (int64, error) {
		c, err := sess.Delete(sess.CreateAuthor(a), off, length)
		if err != nil {
			return 0, err
		}
		return c.Serial(), nil
	})
}

func (s *httpServer) handleEdit(w http.ResponseWriter, r *http.Request, apply func(sess *session.Session, author string, offset int64, data []byte, length int64) (int64, error)) {
	sess, ok := s.getSession(r)
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var data []byte
	if req.Data != "" {
		var err error
		data, err = base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	serial, err := apply(sess, req.Author, req.Offset, data, req.Length)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, EditResponse{Serial: serial, ComputedFileSize: sess.ComputedFileSize()})
}

// UndoRedoResponse reports the serial of the change that was undone/redone.
type UndoRedoResponse struct {
	Serial           int64 `json:"serial"`
	ComputedFileSize int64 `json:"computed_file_size"`
}

func (s *httpServer) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleUndoRedo(w, r, (*session.Session).Undo)
}

func (s *httpServer) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleUndoRedo(w, r, (*session.Session).Redo)
}

func (s *httpServer) handleUndoRedo(w http.ResponseWriter, r *http.Request, op func(*session.Session) (*change.Change, error)) {
	sess, ok := s.getSession(r)
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}
	c, err := op(sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, UndoRedoResponse{Serial: c.Serial(), ComputedFileSize: sess.ComputedFileSize()})
}

// ViewportResponse carries a viewport's cached bytes, base64 encoded.
type ViewportResponse struct {
	Data   string `json:"data"`
	Length int64  `json:"length"`
}

func (s *httpServer) handleGetViewport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(r)
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}
	vid, err := strconv.ParseInt(mux.Vars(r)["vid"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, ok := sess.GetViewport(vid)
	if !ok {
		http.Error(w, "no such viewport", http.StatusNotFound)
		return
	}
	writeJSON(w, ViewportResponse{
		Data:   base64.StdEncoding.EncodeToString(v.Data()),
		Length: v.Length(),
	})
}

// SaveRequest names the server-side path to materialise the session to.
type SaveRequest struct {
	FilePath string `json:"file_path"`
}

// SaveResponse reports the number of bytes written.
type SaveResponse struct {
	BytesWritten int64 `json:"bytes_written"`
}

func (s *httpServer) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(r)
	if !ok {
		http.Error(w, "no such session", http.StatusNotFound)
		return
	}
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := sess.SaveToPath(req.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, SaveResponse{BytesWritten: n})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
