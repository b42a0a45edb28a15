// Package api exposes the neighbor-letters workflow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mclemoreauction/neighbor-letters/internal/auctionapi"
	"github.com/mclemoreauction/neighbor-letters/internal/csvproc"
	"github.com/mclemoreauction/neighbor-letters/internal/domain"
	"github.com/mclemoreauction/neighbor-letters/internal/letters"
	"github.com/mclemoreauction/neighbor-letters/internal/lob"
	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
	"github.com/mclemoreauction/neighbor-letters/internal/qrlabels"
)

// maxUploadBytes bounds CSV uploads; county lists are well under this.
const maxUploadBytes = 16 << 20

// auctionSiteURL is where a QR scan lands after being counted.
const auctionSiteURL = "https://www.mclemoreauction.com/auction/%s"

// Sender runs the Lob submission chain. Satisfied by *lob.Submitter.
type Sender interface {
	Submit(ctx context.Context, auctionCode, letterHTML string, records []csvproc.AddressRecord) (*lob.SubmissionResult, error)
}

// SendAudit records and lists submission attempts. Nil when the database is
// disabled.
type SendAudit interface {
	Record(ctx context.Context, rec *domain.SendRecord) (string, error)
	History(ctx context.Context, auctionCode string) ([]domain.SendRecord, error)
}

// ScanAudit records QR scans. Nil when the database is disabled.
type ScanAudit interface {
	Record(ctx context.Context, ev *domain.ScanEvent) (string, error)
}

// Archive files the mailed address list in the auction's Dropbox folder.
// Nil when Dropbox is disabled.
type Archive interface {
	ArchiveCSV(ctx context.Context, auctionCode string, data []byte) (string, error)
}

// Handlers carries the service dependencies for all routes.
type Handlers struct {
	processor *csvproc.Processor
	letters   *letters.Service
	store     letters.Store
	auction   auctionapi.Fetcher
	sender    Sender
	sends     SendAudit
	scans     ScanAudit
	archive   Archive
	labels    *qrlabels.Generator
}

// NewHandlers wires the route handlers.
func NewHandlers(
	processor *csvproc.Processor,
	lettersSvc *letters.Service,
	store letters.Store,
	auction auctionapi.Fetcher,
	sender Sender,
	sends SendAudit,
	scans ScanAudit,
	archive Archive,
	labels *qrlabels.Generator,
) *Handlers {
	return &Handlers{
		processor: processor,
		letters:   lettersSvc,
		store:     store,
		auction:   auction,
		sender:    sender,
		sends:     sends,
		scans:     scans,
		archive:   archive,
		labels:    labels,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ProcessCSV accepts a multipart upload (fields: file, auction_code), runs
// the cleaning pipeline, and stores the result for the auction.
func (h *Handlers) ProcessCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(w, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	auctionCode := r.FormValue("auction_code")
	if auctionCode == "" {
		respondError(w, http.StatusBadRequest, "Auction code is required")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	records, stats, err := h.processor.ProcessBytes(content)
	if err != nil {
		status, msg := classifyProcessingError(err)
		respondError(w, status, msg)
		return
	}

	if err := h.store.SaveRecords(auctionCode, records); err != nil {
		if errors.Is(err, letters.ErrBadAuctionCode) {
			respondError(w, http.StatusBadRequest, "Invalid auction code")
			return
		}
		logger.Error("api: failed to save processed addresses", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to save processed addresses")
		return
	}

	logger.Info("api: processed upload",
		"auction_code", auctionCode, "file", header.Filename, "processed", stats.ProcessedRows)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":                true,
		"message":                "File processed successfully",
		"total_rows":             stats.TotalRows,
		"processed_rows":         stats.ProcessedRows,
		"skipped_rows":           stats.SkippedRows,
		"format_detected":        stats.FormatDetected,
		"excluded_institutional": stats.ExcludedInstitutional,
		"duplicate_rows":         stats.DuplicateRows,
	})
}

// classifyProcessingError maps pipeline failures to HTTP responses. Every
// recognized failure is a client problem with the file, not a server fault.
func classifyProcessingError(err error) (int, string) {
	var formatErr *csvproc.FormatError
	switch {
	case errors.Is(err, csvproc.ErrEmptyFile),
		errors.Is(err, csvproc.ErrEmptyResult),
		errors.As(err, &formatErr):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusBadRequest, fmt.Sprintf("Error reading CSV file: %v. Please check the format.", err)
	}
}

// GetTemplate returns the auction's letter template, generating the default
// when none is saved.
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	tmpl, err := h.letters.Template(r.Context(), auctionCode)
	if err != nil {
		if errors.Is(err, auctionapi.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Could not find auction")
			return
		}
		logger.Error("api: template fetch failed", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to load letter template")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"auction_code":   auctionCode,
		"letter_content": tmpl,
	})
}

// SaveTemplate validates and stores the auction's letter template.
func (h *Handlers) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	var body struct {
		LetterContent string `json:"letter_content"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.LetterContent) == "" {
		respondError(w, http.StatusBadRequest, "Letter content is required")
		return
	}

	if err := h.letters.SaveTemplate(auctionCode, body.LetterContent); err != nil {
		var phErr *lob.PlaceholderError
		if errors.As(err, &phErr) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success":              false,
				"message":              phErr.Error(),
				"missing_placeholders": phErr.Missing,
			})
			return
		}
		if errors.Is(err, letters.ErrBadAuctionCode) {
			respondError(w, http.StatusBadRequest, "Invalid auction code")
			return
		}
		logger.Error("api: template save failed", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to save letter template")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Letter template saved successfully",
	})
}

// Preview renders the letter with live auction details and a sample
// recipient.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	html, err := h.letters.Preview(r.Context(), auctionCode)
	if err != nil {
		if errors.Is(err, auctionapi.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Could not find auction")
			return
		}
		logger.Error("api: preview failed", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to render preview")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"preview": html,
	})
}

// GetAuction proxies auction metadata for the editor UI.
func (h *Handlers) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	details, err := h.auction.GetAuction(r.Context(), auctionCode)
	if err != nil {
		if errors.Is(err, auctionapi.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Could not find auction")
			return
		}
		logger.Error("api: auction lookup failed", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusBadGateway, "Auction lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, details)
}

// SendLetters submits the stored template and address list to Lob. Every
// attempt is recorded in the audit table, success or failure.
func (h *Handlers) SendLetters(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	records, err := h.store.GetRecords(auctionCode)
	if err != nil {
		if errors.Is(err, letters.ErrNoRecords) {
			respondError(w, http.StatusBadRequest, "No processed data found. Please upload a CSV file first.")
			return
		}
		if errors.Is(err, letters.ErrBadAuctionCode) {
			respondError(w, http.StatusBadRequest, "Invalid auction code")
			return
		}
		logger.Error("api: failed to load addresses", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to load processed addresses")
		return
	}

	tmpl, err := h.letters.Template(r.Context(), auctionCode)
	if err != nil {
		respondError(w, http.StatusBadRequest, "No letter template available for this auction")
		return
	}

	result, err := h.sender.Submit(r.Context(), auctionCode, tmpl, records)
	h.auditSend(r.Context(), result, err)

	if err != nil {
		var subErr *lob.SubmissionError
		if errors.As(err, &subErr) {
			status := http.StatusBadGateway
			// Validation and verification failures are problems with the
			// user's data, not with Lob.
			if subErr.Stage == lob.StageValidation || subErr.Stage == lob.StageVerification {
				status = http.StatusBadRequest
			}
			respondJSON(w, status, map[string]interface{}{
				"success":      false,
				"message":      subErr.Error(),
				"failed_stage": subErr.Stage,
				"campaign_id":  subErr.CampaignID,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "Error sending letters")
		return
	}

	go h.archiveRecords(auctionCode, records)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"message":       "Letters sent successfully",
		"campaign_id":   result.CampaignID,
		"creative_id":   result.CreativeID,
		"upload_id":     result.UploadID,
		"address_count": result.AddressCount,
	})
}

// archiveRecords files the mailed list in the auction's Dropbox folder.
// Best effort: the letters are already on their way, so a Dropbox failure
// is only logged. Runs detached from the request with its own deadline.
func (h *Handlers) archiveRecords(auctionCode string, records []csvproc.AddressRecord) {
	if h.archive == nil {
		return
	}

	data, err := csvproc.MarshalCSV(records)
	if err != nil {
		logger.Error("api: failed to render archive CSV", "auction_code", auctionCode, "error", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	link, err := h.archive.ArchiveCSV(ctx, auctionCode, data)
	if err != nil {
		logger.Warn("api: failed to archive address list", "auction_code", auctionCode, "error", err.Error())
		return
	}
	logger.Info("api: archived address list", "auction_code", auctionCode, "link", link)
}

// auditSend writes the submission attempt to letters_sent. Audit failures
// are logged, never surfaced: the letters already went out.
func (h *Handlers) auditSend(ctx context.Context, result *lob.SubmissionResult, submitErr error) {
	if h.sends == nil || result == nil {
		return
	}

	rec := &domain.SendRecord{
		AuctionCode:  result.AuctionCode,
		CampaignID:   result.CampaignID,
		CreativeID:   result.CreativeID,
		UploadID:     result.UploadID,
		AddressCount: result.AddressCount,
		Status:       domain.SendStatusSent,
	}
	if submitErr != nil {
		rec.Status = domain.SendStatusFailed
		rec.ErrorDetail = submitErr.Error()
		var subErr *lob.SubmissionError
		if errors.As(submitErr, &subErr) {
			rec.FailedStage = subErr.Stage
		}
	}

	if _, err := h.sends.Record(ctx, rec); err != nil {
		logger.Error("api: failed to record send audit", "auction_code", result.AuctionCode, "error", err.Error())
	}
}

// SendHistory lists submission attempts for an auction, newest first.
func (h *Handlers) SendHistory(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	if h.sends == nil {
		respondError(w, http.StatusServiceUnavailable, "Send history is not available")
		return
	}

	history, err := h.sends.History(r.Context(), auctionCode)
	if err != nil {
		logger.Error("api: history lookup failed", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to load send history")
		return
	}
	if history == nil {
		history = []domain.SendRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"history": history,
	})
}

// DownloadCSV returns the processed address list as a CSV attachment.
func (h *Handlers) DownloadCSV(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	records, err := h.store.GetRecords(auctionCode)
	if err != nil {
		if errors.Is(err, letters.ErrNoRecords) {
			respondError(w, http.StatusNotFound, "No processed data found for this auction")
			return
		}
		if errors.Is(err, letters.ErrBadAuctionCode) {
			respondError(w, http.StatusBadRequest, "Invalid auction code")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load processed addresses")
		return
	}

	data, err := csvproc.MarshalCSV(records)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render CSV")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "processed-neighbors-"+auctionCode+".csv"))
	w.Write(data)
}

// LabelSheet returns a printable PDF of QR labels for the auction.
func (h *Handlers) LabelSheet(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	count := 0
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "count must be between 1 and 500")
			return
		}
		count = n
	}

	pdf, err := h.labels.LabelSheet(auctionCode, count)
	if err != nil {
		logger.Error("api: label sheet failed", "auction_code", auctionCode, "error", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to generate label sheet")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "auction_labels_"+auctionCode+".pdf"))
	w.Write(pdf)
}

// QRRedirect counts the scan and forwards the visitor to the auction page.
// Public: letter recipients are not logged in, and a tracking failure must
// never block the redirect.
func (h *Handlers) QRRedirect(w http.ResponseWriter, r *http.Request) {
	auctionCode := chi.URLParam(r, "auctionCode")

	if h.scans != nil {
		_, err := h.scans.Record(r.Context(), &domain.ScanEvent{
			AuctionCode: auctionCode,
			UserAgent:   r.UserAgent(),
			Referer:     r.Referer(),
		})
		if err != nil {
			logger.Warn("api: failed to record scan", "auction_code", auctionCode, "error", err.Error())
		}
	}

	http.Redirect(w, r, fmt.Sprintf(auctionSiteURL, auctionCode), http.StatusFound)
}

func decodeJSONBody(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
