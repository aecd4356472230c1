package salesimport

import (
	"github.com/go-playground/validator/v10"

	"github.com/flashledger/flashledger/internal/salesimport/waterfall"
)

var validate = validator.New()

// UploadRequest carries the multipart form fields accompanying a file upload.
// The file itself arrives in the "file" part.
type UploadRequest struct {
	Channel  string `validate:"required,oneof=TABSENSE TALABAT"`
	BranchID int64  `validate:"omitempty,gt=0"`
}

// PostRequest extends UploadRequest with the posting decision. Posting always
// requires a branch.
type PostRequest struct {
	Channel  string `validate:"required,oneof=TABSENSE TALABAT"`
	BranchID int64  `validate:"required,gt=0"`
	Mode     string `validate:"required,oneof=POST_ALL POST_REVENUE_ONLY POST_MISSING_COGS"`
}

// AnalyzeResponse is the read-only preview payload.
type AnalyzeResponse struct {
	Success       bool                     `json:"success"`
	Status        BatchStatus              `json:"status"`
	FlashReport   []waterfall.WaterfallRow `json:"flashReport"`
	ReceiptCount  int                      `json:"receiptCount"`
	UnmappedCount int                      `json:"unmappedCount"`
	ZeroCostCount int                      `json:"zeroCostCount"`
	Debug         DebugInfo                `json:"debug"`
}

// PostResponse reports the posting outcome.
type PostResponse struct {
	Success     bool         `json:"success"`
	PostedCount int          `json:"postedCount"`
	Status      ReportStatus `json:"status"`
	Message     string       `json:"message"`
}

func toAnalyzeResponse(result AnalyzeResult) AnalyzeResponse {
	return AnalyzeResponse{
		Success:       true,
		Status:        result.Status,
		FlashReport:   result.FlashReport,
		ReceiptCount:  result.ReceiptCount,
		UnmappedCount: result.UnmappedCount,
		ZeroCostCount: result.ZeroCostCount,
		Debug:         result.Debug,
	}
}
