package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dreamph/sheetimport"
	"github.com/dreamph/sheetimport/internal/logging"
	"github.com/dreamph/sheetimport/inventory"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// rowError is the JSON form of one import diagnostic.
type rowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type importFailure struct {
	FileName string     `json:"fileName"`
	Errors   []rowError `json:"errors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTemplate serves an empty inventory workbook.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="inventory_template.xlsx"`)
	if err := inventory.WriteTemplate(w); err != nil {
		logging.FromContext(r.Context()).Error("template write failed", "error", err)
	}
}

// handleImport validates an uploaded inventory workbook. A rejected file
// answers 422 with every diagnostic, as JSON or, with ?format=xlsx, as an
// error report workbook.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	log := logging.WithFields(r.Context(), "file", header.Filename)
	opts := append(s.cfg.Import.Options(), sheetimport.WithLogger(log))

	summary, err := inventory.Import(r.Context(), data, header.Filename, opts...)
	if err != nil {
		var verrs sheetimport.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error("import failed", "error", err)
			writeError(w, http.StatusInternalServerError, "import failed")
			return
		}
		if r.URL.Query().Get("format") == "xlsx" {
			w.Header().Set("Content-Type", xlsxContentType)
			w.Header().Set("Content-Disposition", `attachment; filename="import_errors.xlsx"`)
			w.WriteHeader(http.StatusUnprocessableEntity)
			if err := sheetimport.WriteErrorReport(w, verrs); err != nil {
				log.Error("error report write failed", "error", err)
			}
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, toFailure(header.Filename, verrs))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func toFailure(fileName string, errs sheetimport.ValidationErrors) importFailure {
	out := importFailure{FileName: fileName, Errors: make([]rowError, len(errs))}
	for i, e := range errs {
		out.Errors[i] = rowError{Row: e.Row, Message: e.Error()}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
