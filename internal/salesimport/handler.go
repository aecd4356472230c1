package salesimport

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/flashledger/flashledger/internal/accounting/accounts"
	acctshared "github.com/flashledger/flashledger/internal/accounting/shared"
	"github.com/flashledger/flashledger/internal/platform/httpx"
	"github.com/flashledger/flashledger/internal/shared"
)

// maxUploadBytes caps one POS export upload.
const maxUploadBytes = 32 << 20

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Analyze handles POST /sales-import/analyze. Multipart form: file, channel,
// optional branch_id.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, records, fileName, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	result, err := h.service.Analyze(r.Context(), AnalyzeInput{
		FileName: fileName,
		Channel:  Channel(req.Channel),
		BranchID: req.BranchID,
		Records:  records,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAnalyzeResponse(result))
}

// Post handles POST /sales-import/post. Multipart form: file, channel,
// branch_id, mode.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	req, records, fileName, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	postReq := PostRequest{Channel: req.Channel, BranchID: req.BranchID, Mode: r.FormValue("mode")}
	if err := validate.Struct(postReq); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Post(r.Context(), PostInput{
		AnalyzeInput: AnalyzeInput{
			FileName: fileName,
			Channel:  Channel(postReq.Channel),
			BranchID: postReq.BranchID,
			Records:  records,
		},
		Mode:  PostingMode(postReq.Mode),
		Actor: shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PostResponse{
		Success:     true,
		PostedCount: result.PostedCount,
		Status:      result.Status,
		Message:     result.Message,
	})
}

// readUpload parses the multipart form and the uploaded table. Responds and
// returns ok=false on any client error.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (UploadRequest, [][]string, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expected multipart form upload")
		return UploadRequest{}, nil, "", false
	}

	var branchID int64
	if raw := r.FormValue("branch_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "branch_id must be an integer")
			return UploadRequest{}, nil, "", false
		}
		branchID = parsed
	}
	req := UploadRequest{Channel: r.FormValue("channel"), BranchID: branchID}
	if err := validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return UploadRequest{}, nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file part is required")
		return UploadRequest{}, nil, "", false
	}
	defer file.Close()

	records, err := ReadTable(file, header.Filename)
	if err != nil {
		h.respondError(w, err)
		return UploadRequest{}, nil, "", false
	}
	return req, records, header.Filename, true
}

// respondError wraps domain failures in the transport sentinel that picks the
// problem status. Anything unrecognized is logged and served as a plain 500.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrParse), errors.Is(err, acctshared.ErrUnbalanced):
		err = fmt.Errorf("%w: %w", httpx.ErrUnprocessable, err)
	case errors.Is(err, shared.ErrBranchRequired):
		err = fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	case errors.Is(err, shared.ErrBranchForbidden):
		err = fmt.Errorf("%w: %w", httpx.ErrForbidden, err)
	case errors.Is(err, shared.ErrNotFound):
		err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, accounts.ErrChartIncomplete):
		err = fmt.Errorf("%w: %w", httpx.ErrConfiguration, err)
	case errors.Is(err, acctshared.ErrReceiptAlreadyClaimed):
		httpx.Problem(w, http.StatusConflict, "Conflict",
			"a concurrent import claimed one of these receipts; nothing was posted, re-run analyze")
		return
	default:
		h.logger.Error("sales import request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
